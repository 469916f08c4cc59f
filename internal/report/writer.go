package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/matillion/mattermost-export/internal/export"
	"go.uber.org/zap"
)

// Publisher writes the three artifacts for one run. Rendering happens in a
// temporary directory which is renamed into place only after every artifact
// succeeds, so a failed run leaves no partial output.
type Publisher struct {
	outDir string
	logger *zap.Logger
}

func NewPublisher(outDir string, logger *zap.Logger) *Publisher {
	return &Publisher{outDir: outDir, logger: logger}
}

type renderer struct {
	name  string
	write func(io.Writer, export.ThreadTree, Options) error
}

var renderers = []renderer{
	{"channel_posts.html", writeHTML},
	{"channel_posts.csv", writeCSV},
	{"channel_posts.json", writeJSON},
}

// Publish renders every artifact and atomically moves the result to
// <outDir>/<channel name>/. An existing directory for the channel is
// replaced.
func (p *Publisher) Publish(tree export.ThreadTree, opts Options) ([]FileRef, error) {
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpDir := filepath.Join(p.outDir, ".tmp-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	finalDir := filepath.Join(p.outDir, sanitizeName(opts.ChannelName))

	var refs []FileRef
	for _, r := range renderers {
		ref, err := p.writeArtifact(tmpDir, r, tree, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", r.name, err)
		}
		// Paths point at the final location the rename puts them in.
		ref.Path = filepath.Join(finalDir, ref.Name)
		refs = append(refs, ref)
	}

	if err := os.RemoveAll(finalDir); err != nil {
		return nil, fmt.Errorf("failed to clear previous export: %w", err)
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return nil, fmt.Errorf("failed to publish export: %w", err)
	}

	for _, ref := range refs {
		p.logger.Info("Artifact written",
			zap.String("path", ref.Path),
			zap.Int64("bytes", ref.Bytes))
	}

	return refs, nil
}

func (p *Publisher) writeArtifact(dir string, r renderer, tree export.ThreadTree, opts Options) (FileRef, error) {
	path := filepath.Join(dir, r.name)

	file, err := os.Create(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := r.write(file, tree, opts); err != nil {
		return FileRef{}, err
	}

	fi, err := file.Stat()
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to stat file: %w", err)
	}

	return FileRef{
		Path:  path,
		Name:  r.name,
		Bytes: fi.Size(),
	}, nil
}
