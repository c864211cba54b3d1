package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/grading"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/ui/theme"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "List, show, play and rank saved quizzes",
}

var quizListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved quizzes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		quizzes, err := s.QuizRepo().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		if len(quizzes) == 0 {
			fmt.Println("No quizzes yet. Create one with: quizgen generate --source <file>")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-10s  %-9s  %-10s  %s\n",
			"ID", "Created", "Status", "Questions", "Difficulty", "Title")
		fmt.Println(strings.Repeat("─", 110))
		for _, q := range quizzes {
			fmt.Printf("%-36s  %-16s  %-10s  %4d/%-4d  %-10s  %s\n",
				q.ID,
				q.CreatedAt.Local().Format("2006-01-02 15:04"),
				theme.Status(string(q.Status))+strings.Repeat(" ", max(0, 10-len(q.Status))),
				q.QuestionCount, q.RequestedCount,
				q.Difficulty,
				truncate(q.Title, 40),
			)
		}
		return nil
	},
}

var quizShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a quiz with answers and explanations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		quiz, err := getQuiz(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return writeQuizJSON(cmd.OutOrStdout(), quiz.QuizMeta, quiz.Questions)
		}

		printQuiz(cmd.OutOrStdout(), quiz.QuizMeta, quiz.Questions)
		switch quiz.Status {
		case store.StatusFailed:
			fmt.Println(theme.Incorrect.Render("Generation failed: " + quiz.ErrorMessage))
		case store.StatusGenerating:
			fmt.Println(theme.Warning.Render("Generation has not finished."))
		}
		return nil
	},
}

var quizPlayCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Answer a quiz interactively and record the score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		player, _ := cmd.Flags().GetString("player")
		if player == "" {
			player = defaultPlayer()
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		quiz, err := getQuiz(ctx, s, args[0])
		if err != nil {
			return err
		}
		if quiz.Status != store.StatusReady || len(quiz.Questions) == 0 {
			return fmt.Errorf("quiz %s is not playable (status %s)", quiz.ID, quiz.Status)
		}

		out := cmd.OutOrStdout()
		printQuizHeader(out, quiz.QuizMeta)

		var answers []int
		start := time.Now()
		if in := cmd.InOrStdin(); isTerminal(in) {
			answers, err = playInteractive(ctx, in, out, quiz.Questions)
			if err != nil {
				return err
			}
		} else {
			answers = playLines(in, out, quiz.Questions)
		}
		elapsed := time.Since(start)

		res := grading.Grade(quiz.Questions, answers)
		fmt.Fprintf(out, "%s  %d/%d in %s\n",
			theme.ScoreBar(res.Score, 20), res.Correct, res.Total, elapsed.Round(time.Second))

		id, err := s.AttemptRepo().Record(ctx, store.Attempt{
			QuizID:   quiz.ID,
			Player:   player,
			Correct:  res.Correct,
			Total:    res.Total,
			Duration: elapsed,
		})
		if err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}

		board, err := s.AttemptRepo().Leaderboard(ctx, quiz.ID, 0)
		if err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}
		for _, e := range board {
			if e.ID == id {
				fmt.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("Rank %d of %d", e.Rank, len(board))))
				break
			}
		}
		return nil
	},
}

var quizLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard <id>",
	Short: "Show the best attempts on a quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		quiz, err := getQuiz(ctx, s, args[0])
		if err != nil {
			return err
		}
		board, err := s.AttemptRepo().Leaderboard(ctx, quiz.ID, limit)
		if err != nil {
			return fmt.Errorf("leaderboard: %w", err)
		}

		fmt.Println(theme.Title.Render(quiz.Title))
		if len(board) == 0 {
			fmt.Println("No attempts yet.")
			return nil
		}
		fmt.Printf("%-4s  %-20s  %-28s  %8s  %s\n", "Rank", "Player", "Score", "Time", "Played")
		fmt.Println(strings.Repeat("─", 84))
		for _, e := range board {
			fmt.Printf("%-4d  %-20s  %s  %8s  %s\n",
				e.Rank,
				truncate(e.Player, 20),
				theme.ScoreBar(e.Score(), 20),
				e.Duration.Round(time.Second),
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var quizDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a quiz with its attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.QuizRepo().Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func getQuiz(ctx context.Context, s *store.Store, id string) (*store.Quiz, error) {
	quiz, err := s.QuizRepo().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %s not found", id)
	}
	return quiz, nil
}

func defaultPlayer() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}

func init() {
	quizListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show")
	quizShowCmd.Flags().Bool("json", false, "Print the quiz as JSON")
	quizPlayCmd.Flags().StringP("player", "p", "", "Name on the leaderboard (defaults to $USER)")
	quizLeaderboardCmd.Flags().IntP("limit", "n", 10, "Number of attempts to show")

	quizCmd.AddCommand(quizListCmd)
	quizCmd.AddCommand(quizShowCmd)
	quizCmd.AddCommand(quizPlayCmd)
	quizCmd.AddCommand(quizLeaderboardCmd)
	quizCmd.AddCommand(quizDeleteCmd)
}
