package score

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/ppiankov/symptia/internal/knowledge"
	"github.com/ppiankov/symptia/internal/model"
)

// InputSize is the number of tags the network encodes; later tags are ignored
const InputSize = 20

// Network produces one score in (0,1) per catalog condition.
// Output i belongs to catalog entry i; missing outputs count as 0.
type Network interface {
	Predict(tags []model.SymptomTag) []float64
	// Fingerprint identifies the weights, so cached results can be matched to them
	Fingerprint() string
}

// DenseNetwork is a single untrained dense layer with a logistic output.
// Its weights are pseudo-random and only perturb the lexical score.
type DenseNetwork struct {
	weights     [][]float64
	biases      []float64
	kb          *knowledge.KnowledgeBase
	fingerprint string
}

// NewSeededNetwork creates a network whose weights are derived from seed.
// Rows are drawn one output at a time, so networks with the same seed agree
// on every shared output regardless of size.
func NewSeededNetwork(kb *knowledge.KnowledgeBase, outputs int, seed uint64) *DenseNetwork {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	n := &DenseNetwork{
		weights: make([][]float64, outputs),
		biases:  make([]float64, outputs),
		kb:      kb,
	}
	for i := 0; i < outputs; i++ {
		row := make([]float64, InputSize)
		for j := range row {
			row[j] = rng.Float64()*2 - 1
		}
		n.weights[i] = row
		n.biases[i] = rng.Float64()*2 - 1
	}
	n.fingerprint = fingerprintWeights(n.weights, n.biases)

	return n
}

var (
	processSeedOnce sync.Once
	processSeed     uint64
)

// ProcessSeed returns the seed chosen for this process.
// It is drawn on first use and never changes afterwards.
func ProcessSeed() uint64 {
	processSeedOnce.Do(func() {
		processSeed = rand.Uint64()
	})
	return processSeed
}

// NewProcessNetwork creates a network with the per-process random weights.
// Scores are stable for the lifetime of the process but not across restarts.
func NewProcessNetwork(kb *knowledge.KnowledgeBase, outputs int) *DenseNetwork {
	return NewSeededNetwork(kb, outputs, ProcessSeed())
}

// Predict runs the forward pass
func (n *DenseNetwork) Predict(tags []model.SymptomTag) []float64 {
	input := n.encode(tags)

	output := make([]float64, len(n.weights))
	for i, row := range n.weights {
		sum := n.biases[i]
		for j, w := range row {
			sum += w * input[j]
		}
		output[i] = sigmoid(sum)
	}
	return output
}

func (n *DenseNetwork) Fingerprint() string {
	return n.fingerprint
}

// encode maps position i to the severity weight of the i-th tag
func (n *DenseNetwork) encode(tags []model.SymptomTag) []float64 {
	encoding := make([]float64, InputSize)
	for i, tag := range tags {
		if i >= InputSize {
			break
		}
		encoding[i] = n.kb.SeverityWeight(tag)
	}
	return encoding
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func fingerprintWeights(weights [][]float64, biases []float64) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for i, row := range weights {
		for _, w := range row {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(w))
			h.Write(buf)
		}
		binary.LittleEndian.PutUint64(buf, math.Float64bits(biases[i]))
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// ConstantNetwork returns the same value for every condition.
// Used where scores must be exactly reproducible.
type ConstantNetwork struct {
	Value   float64
	Outputs int
}

func (c ConstantNetwork) Predict(tags []model.SymptomTag) []float64 {
	out := make([]float64, c.Outputs)
	for i := range out {
		out[i] = c.Value
	}
	return out
}

func (c ConstantNetwork) Fingerprint() string {
	return fmt.Sprintf("constant:%g:%d", c.Value, c.Outputs)
}

// NetworkFromConfig builds the network selected by the analysis config
func NetworkFromConfig(kb *knowledge.KnowledgeBase, cfg model.AnalysisConfig) (Network, error) {
	outputs := len(kb.Conditions())

	switch cfg.Network {
	case model.NetworkConstant:
		return ConstantNetwork{Value: cfg.NetworkValue, Outputs: outputs}, nil
	case model.NetworkRandom, "":
		if cfg.Seed != 0 {
			return NewSeededNetwork(kb, outputs, cfg.Seed), nil
		}
		return NewProcessNetwork(kb, outputs), nil
	default:
		return nil, fmt.Errorf("unknown network mode %q", cfg.Network)
	}
}
