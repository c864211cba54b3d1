package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/ui/theme"
	"github.com/abhisek/quizgen/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz from a source text",
	Long: `Generate a multiple-choice quiz from a source text.

The text is read from --text, from the file given by --source, or from
stdin with --source -. The quiz is saved to the database unless --no-save
is set.

Difficulty picks the blend of cognitive skills:
  easy    remembering
  medium  understanding 50%, remembering 30%, applying 20%
  hard    analyzing 60%, applying 40%`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringP("difficulty", "d", "medium", "Quiz difficulty: easy, medium or hard")
	f.IntP("count", "n", 10, "Number of questions")
	f.String("taxonomy", "", "Use a single cognitive skill instead of the difficulty blend")
	f.StringP("source", "s", "", "Source text file, or - for stdin")
	f.String("text", "", "Source text given inline")
	f.String("title", "", "Quiz title (defaults to the first line of the source)")
	f.Uint64("seed", 0, "Shuffle seed for a reproducible question order (0 = random)")
	f.Int("concurrency", 0, "Max concurrent category requests (0 = unbounded)")
	f.Duration("timeout", 60*time.Second, "Timeout for each LLM call")
	f.Bool("no-refine", false, "Skip the final editing pass")
	f.Bool("no-save", false, "Print the quiz without saving it")
	f.Bool("json", false, "Print the quiz as JSON")

	generateCmd.MarkFlagsMutuallyExclusive("source", "text")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	diffVal, _ := f.GetString("difficulty")
	count, _ := f.GetInt("count")
	taxVal, _ := f.GetString("taxonomy")
	title, _ := f.GetString("title")
	seed, _ := f.GetUint64("seed")
	concurrency, _ := f.GetInt("concurrency")
	timeout, _ := f.GetDuration("timeout")
	noRefine, _ := f.GetBool("no-refine")
	noSave, _ := f.GetBool("no-save")
	asJSON, _ := f.GetBool("json")

	difficulty, err := quizgen.ParseDifficulty(diffVal)
	if err != nil {
		return err
	}
	var taxonomy quizgen.Category
	if taxVal != "" {
		if taxonomy, err = quizgen.ParseCategory(taxVal); err != nil {
			return err
		}
	}
	if count <= 0 {
		return fmt.Errorf("--count must be positive, got %d", count)
	}

	src, err := readSource(cmd)
	if err != nil {
		return err
	}
	if title == "" {
		title = titleFrom(src)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Without a database the LLM calls are only logged, not recorded.
	var st *store.Store
	var events store.EventRepo
	if !noSave {
		if st, err = openStore(cmd); err != nil {
			return err
		}
		defer st.Close()
		events = st.EventRepo()
	}

	provider, embedder, llmCfg, err := llm.NewProviderFromEnv(ctx, events, logger)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}
	logger.Debug("llm configured",
		zap.String("provider", llmCfg.Provider),
		zap.String("model", provider.ModelID()),
		zap.String("embedding_model", embedder.ModelID()),
	)

	cfg := quizgen.DefaultConfig()
	cfg.Seed = seed
	cfg.MaxConcurrency = concurrency
	cfg.CallTimeout = timeout
	cfg.SkipRefine = noRefine
	svc := quizgen.NewService(provider, embedder, cfg, logger)

	req := quizgen.Request{
		Difficulty:       difficulty,
		TotalCount:       count,
		SourceText:       src,
		TaxonomyOverride: taxonomy,
	}
	plans, err := svc.Plan(req)
	if err != nil {
		return err
	}
	if !asJSON {
		printPlan(cmd.ErrOrStderr(), plans)
	}

	out := cmd.OutOrStdout()
	meta := store.QuizMeta{
		Title:            title,
		Difficulty:       string(difficulty),
		RequestedCount:   count,
		TaxonomyOverride: string(taxonomy),
	}

	if noSave {
		res, err := svc.GenerateQuizFromSource(ctx, req)
		if err != nil {
			return fmt.Errorf("generate quiz: %w", err)
		}
		meta.Refined = res.Refined
		meta.QuestionCount = len(res.Questions)
		qs := worker.ToStored(res.Questions)
		if asJSON {
			return writeQuizJSON(out, meta, qs)
		}
		printQuiz(out, meta, qs)
		return nil
	}

	quizzes := st.QuizRepo()
	id, err := quizzes.Create(ctx, store.NewQuiz{
		Title:            title,
		Difficulty:       meta.Difficulty,
		RequestedCount:   count,
		TaxonomyOverride: meta.TaxonomyOverride,
		SourceText:       src,
	})
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}

	runner := worker.NewRunner(ctx, svc, quizzes, 1, logger)
	done := make(chan worker.Outcome, 1)
	if err := runner.Submit(worker.Job{QuizID: id, Request: req, Done: done}); err != nil {
		runner.Close()
		return err
	}
	outcome := <-done
	runner.Close()
	if outcome.Err != nil {
		if errors.Is(outcome.Err, context.Canceled) {
			return fmt.Errorf("generation of quiz %s interrupted", id)
		}
		return fmt.Errorf("generate quiz %s: %w", id, outcome.Err)
	}

	quiz, err := quizzes.Get(context.WithoutCancel(ctx), id)
	if err != nil {
		return fmt.Errorf("load quiz: %w", err)
	}
	if asJSON {
		return writeQuizJSON(out, quiz.QuizMeta, quiz.Questions)
	}
	printQuiz(out, quiz.QuizMeta, quiz.Questions)
	fmt.Fprintln(out, theme.Hint.Render("Play it with: quizgen quiz play "+id))
	return nil
}

func readSource(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	path, _ := cmd.Flags().GetString("source")

	switch {
	case text != "":
	case path == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read source: %w", err)
		}
		text = string(b)
	default:
		return "", errors.New("a source text is required: use --text or --source")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("source text is empty")
	}
	return text, nil
}

func printPlan(w io.Writer, plans []quizgen.CategoryPlan) {
	var parts []string
	for _, p := range plans {
		if p.Needed > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", p.Category, p.Needed))
		}
	}
	fmt.Fprintln(w, theme.Hint.Render("Generating: "+strings.Join(parts, ", ")))
}
