package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/concordance"
	"github.com/lexalign/concordance/pkg/llms"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	checkDocA     string
	checkDocB     string
	checkPrimLang string
	checkSecLang  string
	checkNoJudge  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Runs a concordance check on two paragraph files and prints progress as NDJSON",
	Example: "concordance check --doc-a contract_en.yaml --doc-b contract_de.yaml " +
		"--prim-lang en --sec-lang de",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error configuring concordance: %w", err)
		}
		config.SetLogLevel(cfg)

		paragraphsA, err := readParagraphFile(checkDocA)
		if err != nil {
			return err
		}
		paragraphsB, err := readParagraphFile(checkDocB)
		if err != nil {
			return err
		}

		generator, err := llms.NewGenerator(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runCheck(ctx, cmd.OutOrStdout(), generator, cfg, concordance.CheckRequest{
			DocA:        filepath.Base(checkDocA),
			DocB:        filepath.Base(checkDocB),
			Languages:   models.LanguagePair{Primary: checkPrimLang, Secondary: checkSecLang},
			ParagraphsA: paragraphsA,
			ParagraphsB: paragraphsB,
			Judge:       internal.Ptr(!checkNoJudge),
		})
	},
}

func runCheck(
	ctx context.Context,
	out io.Writer,
	gen models.Generator,
	cfg *config.Config,
	req concordance.CheckRequest,
) error {
	publisher := &ndjsonPublisher{enc: json.NewEncoder(out)}
	orchestrator := concordance.New(gen, concordance.OptionsFromConfig(cfg), publisher)

	res, err := orchestrator.Run(ctx, req)
	if err != nil {
		return err
	}
	if res.Swapped {
		log.Infof("documents swapped, %s is compared as document A", res.DocA)
	}
	return nil
}

// ndjsonPublisher writes every progress event and the final session as one
// JSON line each.
type ndjsonPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (p *ndjsonPublisher) PublishProgress(event models.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(event)
}

func (p *ndjsonPublisher) PublishSession(session models.ConcordanceSession) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(map[string]any{"session": session})
}

// readParagraphFile reads a JSON or YAML file holding either a list of
// paragraphs, a list of strings, or a parsed document with a "para" list.
func readParagraphFile(path string) ([]models.Paragraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	paragraphs, err := parseParagraphs(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return paragraphs, nil
}

func parseParagraphs(data []byte) ([]models.Paragraph, error) {
	// YAML is a superset of JSON, so one decoder reads both
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if doc, ok := raw.(map[string]any); ok {
		list, ok := doc["para"]
		if !ok {
			return nil, fmt.Errorf("document has no %q list", "para")
		}
		raw = list
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of paragraphs, got %T", raw)
	}

	paragraphs := make([]models.Paragraph, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			paragraphs = append(paragraphs, models.Paragraph{Index: i + 1, Text: v})
		case map[string]any:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("paragraph %d: %w", i+1, err)
			}
			var p models.Paragraph
			if err := json.Unmarshal(b, &p); err != nil {
				return nil, fmt.Errorf("paragraph %d: %w", i+1, err)
			}
			paragraphs = append(paragraphs, p)
		default:
			return nil, fmt.Errorf("paragraph %d: unexpected %T", i+1, item)
		}
	}
	return paragraphs, nil
}
