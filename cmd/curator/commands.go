package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/curator-ai/curator/pkg/config"
	"github.com/curator-ai/curator/pkg/content"
	"github.com/curator-ai/curator/pkg/ingest"
)

// IngestCmd ingests one content item from a file or stdin.
type IngestCmd struct {
	User       string `required:"" help:"User who owns the content."`
	SourceType string `name:"source-type" required:"" help:"Source type (e.g. generic-notes, chat-messages, blog-feed)."`
	SourceName string `name:"source-name" required:"" help:"Source name within the user's sources."`
	Title      string `help:"Document title."`
	File       string `short:"f" type:"path" help:"File to ingest (reads stdin when omitted)."`
}

func (c *IngestCmd) Run(cfg *config.Config) error {
	st, err := content.ParseSourceType(c.SourceType)
	if err != nil {
		return err
	}

	var body []byte
	if c.File != "" {
		body, err = os.ReadFile(c.File)
	} else {
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	item := ingest.Item{
		UserID:     c.User,
		SourceType: st,
		SourceName: c.SourceName,
		Title:      c.Title,
		Content:    string(body),
	}
	if c.File != "" {
		item.Metadata = map[string]any{content.MetaFileName: c.File}
	}

	res, err := p.ingestor.Ingest(ctx, item)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Println("Skipped: identical content was ingested recently")
		return nil
	}
	fmt.Printf("Ingested document %s (%d sections)\n", res.DocumentID, res.Sections)
	return nil
}

// ProcessCmd processes a stored document into sections.
type ProcessCmd struct {
	ID string `arg:"" help:"Document id to process."`
}

func (c *ProcessCmd) Run(cfg *config.Config) error {
	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	sections, err := p.processor.Process(ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Processed document %s (%d sections)\n", c.ID, sections)
	return nil
}

// QueryCmd searches indexed sections.
type QueryCmd struct {
	User  string   `required:"" help:"User whose sections to search."`
	Query []string `arg:"" help:"Query text."`
}

func (c *QueryCmd) Run(cfg *config.Config) error {
	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	res, err := p.engine.Search(ctx, c.User, strings.Join(c.Query, " "))
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Println(p.engine.InsufficientContext())
		return nil
	}

	if res.Widened {
		fmt.Println("(no results cleared the similarity threshold; showing best matches)")
	}
	if res.FallbackUser {
		fmt.Println("(results come from the shared fallback corpus)")
	}
	for i, sec := range res.Sections {
		fmt.Printf("%2d. [%.3f] %s\n", i+1, sec.Score, firstLine(sec.Content))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 120
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
