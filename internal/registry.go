package internal

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const (
	HuggingFaceURL = "https://huggingface.co"

	remoteSearch      = "GGUF Q4_K_M"
	remoteSearchLimit = 10
	remoteMaxModels   = 6
	remoteFetchers    = 4
)

type ModelInfo struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Repo        string `yaml:"repo"`
	File        string `yaml:"file"`
	SizeMB      int    `yaml:"size_mb"`
	Description string `yaml:"description"`
}

// URL is the download location on huggingface.co.
func (m ModelInfo) URL() string {
	return m.URLAt(HuggingFaceURL)
}

func (m ModelInfo) URLAt(base string) string {
	return fmt.Sprintf("%s/%s/resolve/main/%s", strings.TrimRight(base, "/"), m.Repo, m.File)
}

type catalogFile struct {
	Models []ModelInfo `yaml:"models"`
}

// ParseCatalog reads a model catalog. Entries without id, repo or file are
// rejected.
func ParseCatalog(data []byte) ([]ModelInfo, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("parse catalog: no models")
	}
	for i, m := range f.Models {
		if m.ID == "" || m.Repo == "" || m.File == "" {
			return nil, fmt.Errorf("parse catalog: entry %d is missing id, repo or file", i)
		}
	}
	return f.Models, nil
}

type Registry struct {
	catalog []ModelInfo
	baseURL string
	token   string
	client  *http.Client
	remote  bool
}

type RegistryOption func(*Registry)

// WithRegistryURL points remote listing at another HuggingFace compatible host.
func WithRegistryURL(u string) RegistryOption {
	return func(r *Registry) { r.baseURL = strings.TrimRight(u, "/") }
}

func WithRegistryToken(token string) RegistryOption {
	return func(r *Registry) { r.token = token }
}

func WithRegistryClient(c *http.Client) RegistryOption {
	return func(r *Registry) { r.client = c }
}

// WithRemote toggles the HuggingFace listing. It is on by default.
func WithRemote(enabled bool) RegistryOption {
	return func(r *Registry) { r.remote = enabled }
}

func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		baseURL: HuggingFaceURL,
		client:  http.DefaultClient,
		remote:  true,
	}
	for _, o := range opts {
		o(r)
	}

	models, err := ParseCatalog(catalogYAML)
	if err != nil {
		return nil, err
	}
	r.catalog = models

	return r, nil
}

func (r *Registry) Catalog() []ModelInfo {
	return append([]ModelInfo(nil), r.catalog...)
}

func (r *Registry) Default() ModelInfo {
	return r.catalog[0]
}

// List returns the catalog followed by remote models not already in it.
// A failing remote listing is logged and the catalog alone is returned.
func (r *Registry) List(ctx context.Context) []ModelInfo {
	models := r.Catalog()
	if !r.remote {
		return models
	}

	remote, err := r.Remote(ctx)
	if err != nil {
		slog.Warn("remote model listing unavailable, showing built-in catalog", "error", err)
		return models
	}

	seen := make(map[string]bool, len(models))
	for _, m := range models {
		seen[m.ID] = true
	}
	for _, m := range remote {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		models = append(models, m)
	}
	return models
}

// Resolve finds a model by id. The empty id selects the default model.
// Catalog entries are checked before the network is touched.
func (r *Registry) Resolve(ctx context.Context, id string) (ModelInfo, error) {
	if id == "" {
		return r.Default(), nil
	}

	for _, m := range r.catalog {
		if m.ID == id {
			return m, nil
		}
	}

	if r.remote {
		remote, err := r.Remote(ctx)
		if err != nil {
			return ModelInfo{}, fmt.Errorf("model '%s' not in catalog and remote listing failed: %w", id, err)
		}
		for _, m := range remote {
			if m.ID == id {
				return m, nil
			}
		}
	}

	return ModelInfo{}, fmt.Errorf("model '%s' not found, run --list-models to see available models", id)
}

type hfModel struct {
	ModelID string `json:"modelId"`
}

type hfFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Remote lists popular Q4_K_M GGUF repositories on HuggingFace. File trees
// are fetched concurrently; repositories that fail or have no matching file
// are skipped.
func (r *Registry) Remote(ctx context.Context) ([]ModelInfo, error) {
	q := url.Values{}
	q.Set("search", remoteSearch)
	q.Set("limit", fmt.Sprint(remoteSearchLimit))
	q.Set("sort", "downloads")

	var listing []hfModel
	if err := r.getJSON(ctx, r.baseURL+"/api/models?"+q.Encode(), &listing); err != nil {
		return nil, fmt.Errorf("fetch model list: %w", err)
	}
	if len(listing) == 0 {
		return nil, fmt.Errorf("no models found on %s", r.baseURL)
	}
	if len(listing) > remoteMaxModels {
		listing = listing[:remoteMaxModels]
	}

	found := make([]*ModelInfo, len(listing))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(remoteFetchers)
	for i, hf := range listing {
		g.Go(func() error {
			var files []hfFile
			if err := r.getJSON(gctx, r.baseURL+"/api/models/"+hf.ModelID+"/tree/main", &files); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Debug("skipping model", "repo", hf.ModelID, "error", err)
				return nil
			}
			for _, f := range files {
				if strings.Contains(strings.ToLower(f.Path), "q4_k_m") && strings.HasSuffix(f.Path, ".gguf") {
					m := remoteModelInfo(hf.ModelID, f)
					found[i] = &m
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var models []ModelInfo
	for _, m := range found {
		if m != nil {
			models = append(models, *m)
		}
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no compatible GGUF models found")
	}
	return models, nil
}

func (r *Registry) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

func remoteModelInfo(repo string, f hfFile) ModelInfo {
	owner, repoName, ok := strings.Cut(repo, "/")
	if !ok {
		repoName = repo
		owner = "unknown"
	}

	name := strings.NewReplacer("-GGUF", "", "-Q4_K_M", "", "_", " ").Replace(repoName)

	return ModelInfo{
		ID:          remoteModelID(repoName),
		Name:        name,
		Repo:        repo,
		File:        f.Path,
		SizeMB:      int(f.Size / 1_000_000),
		Description: fmt.Sprintf("Q4_K_M • %s • by %s", humanize.Bytes(uint64(f.Size)), owner),
	}
}

// remoteModelID keeps the first three meaningful parts of a repository name,
// e.g. "Llama-3.2-1B-Instruct-GGUF" becomes "llama-3.2-1b".
func remoteModelID(repoName string) string {
	parts := strings.FieldsFunc(repoName, func(r rune) bool { return r == '-' || r == '_' })

	kept := make([]string, 0, 3)
	for _, p := range parts {
		switch p {
		case "GGUF", "Q4", "K", "M":
			continue
		}
		kept = append(kept, p)
		if len(kept) == 3 {
			break
		}
	}
	return strings.ToLower(strings.Join(kept, "-"))
}
