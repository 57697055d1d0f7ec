package ensemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// StoreState tracks the model store's load lifecycle.
type StoreState int

const (
	StateUnloaded StoreState = iota
	StateLoading
	StateReady
	// StateDegraded means a sub-model or supporting artifact failed to
	// load. The store stays usable but every prediction short-circuits to
	// the reserved failure outcome.
	StateDegraded
)

func (s StoreState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Artifact file names inside a model directory.
const (
	forestArtifact   = "forest.json"
	softmaxArtifact  = "softmax.json"
	metadataArtifact = "metadata.json"
	boundsArtifact   = "bounds.json"
)

// Store holds the two trained sub-models, their blend weights, the
// class-index-to-label mapping, and the advisory bounds table. It is loaded
// exactly once per process, immutable afterwards, and safe to share across
// any number of concurrent callers without locking.
type Store struct {
	state    StoreState
	modelA   Classifier
	modelB   Classifier
	weightA  float64
	weightB  float64
	labels   [NumClasses]string
	bounds   Bounds
	loadedAt time.Time
	version  string
}

// metadata is the ensemble-level artifact. TargetMap keys may be index
// strings ("0") or label strings ("CONFIRMED") depending on which side the
// training pipeline keyed the map by; LoadStore normalizes either form.
type metadata struct {
	Version   string         `json:"version"`
	WeightA   float64        `json:"weight_a"`
	WeightB   float64        `json:"weight_b"`
	Features  []string       `json:"features"`
	TargetMap map[string]any `json:"target_map"`
}

// LoadStore reads the model artifacts from dir (a local directory or an
// http(s) base URL) and returns a store in Ready state. A missing or broken
// sub-model, or a broken metadata artifact, yields a Degraded store and no
// error; only a structurally invalid configuration (bad feature order, bad
// class map) is fatal.
func LoadStore(dir string) (*Store, error) {
	s := &Store{
		state:   StateLoading,
		weightA: 0.6,
		weightB: 0.4,
		labels:  [NumClasses]string{LabelFalsePositive, LabelCandidate, LabelConfirmed},
	}

	fetch := artifactFetcher(dir)

	metaRaw, metaErr := fetch(metadataArtifact)
	if metaErr == nil {
		if err := s.applyMetadata(metaRaw); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Err(metaErr).Msg("ensemble metadata missing, using built-in defaults")
	}

	boundsRaw, _ := fetch(boundsArtifact)
	s.bounds = parseBounds(boundsRaw)

	var loadErrs []string
	if raw, err := fetch(forestArtifact); err != nil {
		loadErrs = append(loadErrs, fmt.Sprintf("forest: %v", err))
	} else if forest, err := LoadForest(raw); err != nil {
		return nil, err
	} else {
		s.modelA = forest
		log.Info().Int("trees", len(forest.Trees)).Msg("forest sub-model loaded")
	}

	if raw, err := fetch(softmaxArtifact); err != nil {
		loadErrs = append(loadErrs, fmt.Sprintf("softmax: %v", err))
	} else if sm, err := LoadSoftmax(raw); err != nil {
		return nil, err
	} else {
		s.modelB = sm
		log.Info().Msg("softmax sub-model loaded")
	}

	if len(loadErrs) > 0 {
		s.state = StateDegraded
		log.Warn().Strs("failures", loadErrs).
			Msg("model store degraded, predictions will return the failure outcome")
		return s, nil
	}

	s.state = StateReady
	s.loadedAt = time.Now()
	log.Info().
		Str("version", s.version).
		Float64("weight_a", s.weightA).
		Float64("weight_b", s.weightB).
		Msg("model store ready")
	return s, nil
}

func (s *Store) applyMetadata(raw []byte) error {
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return &ConfigError{Artifact: metadataArtifact, Reason: err.Error()}
	}

	s.version = meta.Version
	if meta.WeightA > 0 || meta.WeightB > 0 {
		total := meta.WeightA + meta.WeightB
		if total <= 0 {
			return &ConfigError{Artifact: metadataArtifact, Reason: "blend weights must be positive"}
		}
		s.weightA = meta.WeightA / total
		s.weightB = meta.WeightB / total
	}

	if len(meta.Features) > 0 {
		if len(meta.Features) != NumFeatures {
			return &ConfigError{
				Artifact: metadataArtifact,
				Reason:   fmt.Sprintf("feature layout has %d slots, engine expects %d", len(meta.Features), NumFeatures),
			}
		}
		for i, name := range meta.Features {
			if name != featureOrder[i] {
				return &ConfigError{
					Artifact: metadataArtifact,
					Reason:   fmt.Sprintf("feature slot %d is %q, engine expects %q", i, name, featureOrder[i]),
				}
			}
		}
	}

	if len(meta.TargetMap) > 0 {
		labels, err := normalizeTargetMap(meta.TargetMap)
		if err != nil {
			return err
		}
		s.labels = labels
	}
	return nil
}

// normalizeTargetMap accepts the class map keyed either by index ("0" ->
// "CONFIRMED") or by label ("CONFIRMED" -> 0) and returns the index-to-label
// form, failing if the entries are not a clean bijection over {0,1,2}.
func normalizeTargetMap(m map[string]any) ([NumClasses]string, error) {
	var labels [NumClasses]string
	if len(m) != NumClasses {
		return labels, &ConfigError{
			Artifact: metadataArtifact,
			Reason:   fmt.Sprintf("target map has %d entries, expected %d", len(m), NumClasses),
		}
	}

	seen := make(map[int]bool, NumClasses)
	for k, v := range m {
		var idx int
		var label string
		if i, err := strconv.Atoi(k); err == nil {
			// Keyed by index: value is the label.
			idx = i
			label = fmt.Sprintf("%v", v)
		} else {
			// Keyed by label: value is the index.
			label = k
			f, ok := v.(float64)
			if !ok {
				return labels, &ConfigError{
					Artifact: metadataArtifact,
					Reason:   fmt.Sprintf("target map value for %q is not an index", k),
				}
			}
			idx = int(f)
		}
		if idx < 0 || idx >= NumClasses {
			return labels, &ConfigError{
				Artifact: metadataArtifact,
				Reason:   fmt.Sprintf("class index %d out of range", idx),
			}
		}
		if seen[idx] || label == "" {
			return labels, &ConfigError{
				Artifact: metadataArtifact,
				Reason:   "target map is not a bijection over class indices",
			}
		}
		seen[idx] = true
		labels[idx] = label
	}
	return labels, nil
}

// artifactFetcher returns a reader for named artifacts under base, which is
// either a local directory or an http(s) URL prefix (model registries expose
// the latter).
func artifactFetcher(base string) func(name string) ([]byte, error) {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		client := resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond)
		return func(name string) ([]byte, error) {
			url := strings.TrimSuffix(base, "/") + "/" + name
			resp, err := client.R().Get(url)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", url, err)
			}
			if resp.StatusCode() != 200 {
				return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
			}
			return resp.Body(), nil
		}
	}
	return func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(base, name))
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

// State reports the load lifecycle state.
func (s *Store) State() StoreState { return s.state }

// Ready reports whether both sub-models loaded successfully.
func (s *Store) Ready() bool { return s.state == StateReady }

// Labels returns the index-to-label mapping established at load time.
func (s *Store) Labels() [NumClasses]string { return s.labels }

// Bounds returns the advisory validation table.
func (s *Store) Bounds() Bounds { return s.bounds }

// Version returns the model version from metadata, if any.
func (s *Store) Version() string { return s.version }

// LoadedAt returns when the store reached Ready state.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// Weights returns the normalized blend weight pair (wA, wB).
func (s *Store) Weights() (float64, float64) { return s.weightA, s.weightB }
