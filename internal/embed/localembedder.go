package embed

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/hybridgroup/yzma/pkg/llama"

	"github.com/qfs-io/qfs/internal/diag"
	"github.com/qfs-io/qfs/internal/qerr"
)

// LocalEmbedder runs embedding inference in-process via llama.cpp,
// supporting both BERT-family encoder models and decoder models used in
// mean-pooling mode.
type LocalEmbedder struct {
	modelFile  string
	model      llama.Model
	ctx        llama.Context
	useEncode  bool
	maxTokens  int
	dimensions int
	modelName  string
}

// NewLocalEmbedder loads libPath's llama.cpp shared library and
// modelFile, detecting BERT-vs-decoder architecture and sizing the
// context/batch from the model's own metadata.
func NewLocalEmbedder(modelFile, libPath string, dimensions int) (*LocalEmbedder, error) {
	if _, err := os.Stat(modelFile); os.IsNotExist(err) {
		return nil, qerr.ConfigError_("model file not found: "+modelFile, err)
	}

	if err := llama.Load(libPath); err != nil {
		return nil, qerr.EmbeddingError_("load llama library from "+libPath, err)
	}
	llama.Init()

	model, err := llama.ModelLoadFromFile(modelFile, llama.ModelDefaultParams())
	if err != nil {
		return nil, qerr.EmbeddingError_("load model", err)
	}

	useEncode := false
	if val, ok := llama.ModelMetaValStr(model, "general.architecture"); ok {
		useEncode = strings.Contains(val, "bert")
	} else {
		lower := strings.ToLower(modelFile)
		useEncode = strings.Contains(lower, "bert") || strings.Contains(lower, "nomic-embed")
	}

	maxTokens := 2048
	metaKey := "llama.context_length"
	if useEncode {
		metaKey = "nomic-bert.context_length"
	}
	if sVal, ok := llama.ModelMetaValStr(model, metaKey); ok {
		if v, err := strconv.Atoi(sVal); err == nil && v > 0 {
			maxTokens = v
		}
	}

	ctxParams := llama.ContextDefaultParams()
	ctxParams.NCtx = uint32(maxTokens)
	ctxParams.NBatch = uint32(maxTokens)
	ctxParams.NUbatch = uint32(maxTokens)
	ctxParams.Embeddings = 1
	ctxParams.PoolingType = llama.PoolingTypeMean

	lctx, err := llama.InitFromModel(model, ctxParams)
	if err != nil {
		llama.ModelFree(model)
		return nil, qerr.EmbeddingError_("initialize context", err)
	}

	diag.Debug("local embedder initialized: model=%s useEncode=%v maxTokens=%d", modelFile, useEncode, maxTokens)

	return &LocalEmbedder{
		modelFile:  modelFile,
		model:      model,
		ctx:        lctx,
		useEncode:  useEncode,
		maxTokens:  maxTokens,
		dimensions: dimensions,
		modelName:  modelFile,
	}, nil
}

// Embed runs inference for each text sequentially; the underlying
// context's KV cache is cleared between calls so prior documents never
// bleed into a later embedding.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		vec, err := e.embedOne(text, false)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedQuery embeds a single search query with the query-side prompt
// prefix nomic-family models expect.
func (e *LocalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedOne(text, true)
}

func (e *LocalEmbedder) embedOne(text string, isQuery bool) ([]float32, error) {
	prompt := text
	if strings.Contains(strings.ToLower(e.modelFile), "nomic") {
		prefix := "search_document: "
		if isQuery {
			prefix = "search_query: "
		}
		prompt = prefix + text
	}

	vocab := llama.ModelGetVocab(e.model)
	tokens := llama.Tokenize(vocab, prompt, true, true)
	if len(tokens) > e.maxTokens {
		tokens = tokens[:e.maxTokens]
	}

	batch := llama.BatchGetOne(tokens)
	mem, _ := llama.GetMemory(e.ctx)
	llama.MemoryClear(mem, true)

	var ret int32
	var err error
	if e.useEncode {
		ret, err = llama.Encode(e.ctx, batch)
	} else {
		ret, err = llama.Decode(e.ctx, batch)
	}
	if err != nil {
		return nil, qerr.EmbeddingError_("llama inference failed", err)
	}
	if ret != 0 {
		return nil, qerr.EmbeddingError_("llama inference returned nonzero code", nil)
	}

	nEmbd := llama.ModelNEmbd(e.model)
	vec, err := llama.GetEmbeddingsSeq(e.ctx, 0, nEmbd)
	if err != nil {
		return nil, qerr.EmbeddingError_("fetch embeddings", err)
	}

	if e.dimensions > 0 && len(vec) > e.dimensions {
		vec = vec[:e.dimensions]
	}
	normalized := make([]float32, len(vec))
	copy(normalized, vec)
	Normalize(normalized)
	return normalized, nil
}

func (e *LocalEmbedder) Dimensions() int  { return e.dimensions }
func (e *LocalEmbedder) ModelName() string { return e.modelName }

func (e *LocalEmbedder) Close() error {
	if e.ctx != 0 {
		llama.Free(e.ctx)
	}
	if e.model != 0 {
		llama.ModelFree(e.model)
	}
	return nil
}
