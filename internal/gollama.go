package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/dianlight/gollama.cpp"
)

const (
	maxGeneratedTokens = 24
	localContextSize   = 512
)

var _ Provider = (*LocalLLM)(nil)

type localConfig struct {
	debug bool
}

type LocalOption func(*localConfig)

// WithDebug logs the llama.cpp build and device info once the model is loaded.
func WithDebug(debug bool) LocalOption {
	return func(c *localConfig) { c.debug = debug }
}

// LocalLLM runs a GGUF model in process with greedy sampling.
type LocalLLM struct {
	mu    sync.Mutex
	model gollama.LlamaModel
	ctx   gollama.LlamaContext
}

func NewLocalLLM(modelPath string, opts ...LocalOption) (*LocalLLM, error) {
	var cfg localConfig
	for _, o := range opts {
		o(&cfg)
	}

	if err := gollama.Backend_init(); err != nil {
		return nil, fmt.Errorf("init backend for %s: %w", modelPath, err)
	}

	var model gollama.LlamaModel
	var ctx gollama.LlamaContext
	var success atomic.Bool

	defer func() {
		if success.Load() {
			return
		}
		if ctx != 0 {
			gollama.Free(ctx)
		}
		if model != 0 {
			gollama.Model_free(model)
		}
		gollama.Backend_free()
	}()

	gpu := gollama.Supports_gpu_offload()

	modelParams := gollama.Model_default_params()
	if gpu {
		modelParams.NGpuLayers = 99
	} else {
		modelParams.NGpuLayers = 0
	}

	var err error
	model, err = gollama.Model_load_from_file(modelPath, modelParams)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}

	ctxParams := gollama.Context_default_params()
	ctxParams.NCtx = localContextSize

	ctx, err = gollama.Init_from_model(model, ctxParams)
	if err != nil {
		return nil, fmt.Errorf("init context: %w", err)
	}

	if cfg.debug {
		slog.Debug("llama.cpp system info", "info", strings.TrimSpace(gollama.Print_system_info()))
	}
	slog.Debug("local model loaded", "path", modelPath, "gpu_offload", gpu)
	success.Store(true)

	return &LocalLLM{
		model: model,
		ctx:   ctx,
	}, nil
}

// Complete generates until the output holds an emoji, a newline follows some
// text, or the token budget is spent.
func (l *LocalLLM) Complete(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens, err := gollama.Tokenize(l.model, prompt, true, false)
	if err != nil {
		return "", fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("tokenize: empty prompt")
	}
	if len(tokens)+maxGeneratedTokens > localContextSize {
		return "", fmt.Errorf("prompt too long: %d tokens", len(tokens))
	}

	gollama.Memory_clear(l.ctx, false)

	if err := l.decode(tokens, 0); err != nil {
		return "", err
	}

	sampler := gollama.Sampler_init_greedy()
	defer gollama.Sampler_free(sampler)

	var out strings.Builder
	pos := int32(len(tokens))

	for range maxGeneratedTokens {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		tok := gollama.Sampler_sample(sampler, l.ctx, -1)
		piece := gollama.Token_to_piece(l.model, tok, false)
		out.WriteString(piece)

		text := out.String()
		if _, ok := firstEmoji(text); ok {
			break
		}
		if strings.Contains(piece, "\n") && strings.TrimSpace(text) != "" {
			break
		}

		if err := l.decode([]gollama.LlamaToken{tok}, pos); err != nil {
			return "", err
		}
		pos++
	}

	return out.String(), nil
}

func (l *LocalLLM) decode(tokens []gollama.LlamaToken, start int32) error {
	n := int32(len(tokens))
	batch := gollama.Batch_init(n, 0, 1)
	defer gollama.Batch_free(batch)

	tokenSlice := unsafe.Slice(batch.Token, n)
	posSlice := unsafe.Slice(batch.Pos, n)
	nSeqSlice := unsafe.Slice(batch.NSeqId, n)
	seqIDSlice := unsafe.Slice(batch.SeqId, n)
	logitsSlice := unsafe.Slice(batch.Logits, n)

	for i := int32(0); i < n; i++ {
		tokenSlice[i] = tokens[i]
		posSlice[i] = gollama.LlamaPos(start + i)
		nSeqSlice[i] = 1
		*seqIDSlice[i] = 0
		logitsSlice[i] = 0
	}
	// only the last position is sampled from
	logitsSlice[n-1] = 1
	batch.NTokens = n

	if err := gollama.Decode(l.ctx, batch); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (l *LocalLLM) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	gollama.Free(l.ctx)
	gollama.Model_free(l.model)
	gollama.Backend_free()

	return nil
}
