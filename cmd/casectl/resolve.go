package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"lexportal/config"
	"lexportal/logger"
	"lexportal/models"
	"lexportal/repository"
	"lexportal/service"

	"github.com/charmbracelet/glamour"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var analysisCmd = &cobra.Command{
	Use:   "analysis <citation>",
	Short: "Show the analysis of a case, generating it if none is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolve(cmd.Context(), args[0], func(ctx context.Context, cv *service.CaseView) (*document, error) {
			a, err := cv.Analysis.Resolve(ctx, nil)
			if err != nil {
				return nil, err
			}
			return &document{title: a.DLCitationNo, markdown: a.Analysis, record: a}, nil
		})
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest <citation>",
	Short: "Show the digest of a case, generating it if none is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolve(cmd.Context(), args[0], func(ctx context.Context, cv *service.CaseView) (*document, error) {
			d, err := cv.Digest.Resolve(ctx, nil)
			if err != nil {
				return nil, err
			}
			return &document{title: d.DLCitationNo, markdown: d.Digest, record: d}, nil
		})
	},
}

// document is a resolved record ready for printing
type document struct {
	title    string
	markdown string
	record   any
}

func resolve(parent context.Context, citation string, get func(context.Context, *service.CaseView) (*document, error)) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.NewCLI(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	workflow, cleanup, err := newWorkflow(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if caseFile != "" {
		record, err := readCaseFile(caseFile)
		if err != nil {
			return err
		}
		workflow.Cases = fileCases{record: record}
	}

	if token == "" {
		token = os.Getenv("LEXPORTAL_TOKEN")
	}
	cv := workflow.NewCaseView(uuid.NewString(), strings.TrimSpace(citation), service.StaticToken(token))
	defer cv.Close()

	doc, err := get(ctx, cv)
	if err != nil {
		if errors.Is(err, service.ErrAuthMissing) {
			return fmt.Errorf("%w: pass --token or set LEXPORTAL_TOKEN", err)
		}
		return err
	}

	if err := printDocument(doc); err != nil {
		return err
	}

	// the record is already shown; a failed write is only reported
	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.Workflow.PersistTimeout)
	defer cancel()
	waitForWrites(waitCtx, cv, os.Stderr)
	return nil
}

// waitForWrites waits for every record the view generated to be saved and
// prints a notice per failed write. It returns the number of failures.
func waitForWrites(ctx context.Context, cv *service.CaseView, out io.Writer) int {
	writes := []struct {
		name string
		task *service.PersistTask
	}{
		{"analysis", cv.Analysis.Persist()},
		{"digest", cv.Digest.Persist()},
	}

	failed := 0
	for _, w := range writes {
		if w.task == nil {
			continue
		}
		if err := w.task.Wait(ctx); err != nil {
			fmt.Fprintf(out, "Notice: the generated %s was not saved: %v\n", w.name, err)
			failed++
		}
	}
	return failed
}

func printDocument(doc *document) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc.record)
	}

	markdown := fmt.Sprintf("# %s\n\n%s", doc.title, doc.markdown)
	if rawOutput {
		fmt.Print(markdown)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}

func newWorkflow(ctx context.Context, cfg *config.Config, log *zap.Logger) (*service.Workflow, func(), error) {
	store := repository.NewClient(cfg.API.PersistenceURL,
		repository.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		repository.WithRetryPolicy(repository.RetryPolicy{
			MaxRetries:     cfg.API.Retries(),
			InitialBackoff: cfg.API.RetryBackoff,
			MaxBackoff:     10 * cfg.API.RetryBackoff,
		}),
		repository.WithLogger(log))
	ai := service.NewAIClient(repository.NewClient(cfg.API.AIURL,
		repository.WithHTTPClient(&http.Client{Timeout: cfg.API.AITimeout}),
		repository.WithLogger(log)))

	workflow := &service.Workflow{
		Analyses:          repository.NewCaseAnalysisRepository(store, log),
		Digests:           repository.NewCaseDigestRepository(store, log),
		Cases:             repository.NewCaseRepository(store),
		AnalysisGenerator: ai,
		DigestGenerator:   ai,
		Logger:            log,
		Clock:             time.Now,
		PersistTimeout:    cfg.Workflow.PersistTimeout,
	}
	cleanup := func() {}

	if cfg.Generator.Backend == "gemini" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Generator.GeminiAPIKey))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		workflow.AnalysisGenerator = service.NewGeminiGenerator(client, cfg.Generator.GeminiModel, log)
		cleanup = func() { client.Close() }
	}
	return workflow, cleanup, nil
}

// fileCases serves a case record read from disk
type fileCases struct {
	record *models.CaseRecord
}

func (f fileCases) GetByCitation(context.Context, string, string) (*models.CaseRecord, error) {
	return f.record, nil
}

func readCaseFile(path string) (*models.CaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	var record models.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse case file: %w", err)
	}
	return &record, nil
}
