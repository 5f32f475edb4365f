package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/spf13/cobra"
)

var quizRounds int

var quizCmd = &cobra.Command{
	Use:   "quiz <x> <y>",
	Short: "Practise predictions from the fitted equation in the terminal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y := args[0], args[1]
		if x == y {
			return errors.New(regression.ValidationMessage)
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		in := bufio.NewScanner(cmd.InOrStdin())

		correct, asked := 0, 0
		for round := 1; quizRounds <= 0 || round <= quizRounds; round++ {
			q, fit, err := engine.Predict(x, y)
			if err != nil {
				return pairError(err)
			}
			if round == 1 {
				fmt.Fprintf(out, "Regression equation: %s\n", fit.Equation())
			}
			fmt.Fprintf(out, "\n%s\n", q.Prompt())

			answered := false
			for !answered {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					if err := in.Err(); err != nil {
						return fmt.Errorf("read answer: %w", err)
					}
					fmt.Fprintf(out, "\n%d/%d correct\n", correct, asked)
					return nil
				}
				raw := strings.TrimSpace(in.Text())
				if raw == "" {
					continue
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					fmt.Fprintln(out, "⚠ Please enter a number")
					continue
				}
				verdict := regression.GradeWithin(v, q.Answer, cfg.GradeTolerance)
				asked++
				if verdict == regression.Correct {
					correct++
					fmt.Fprintf(out, "✓ %s\n", regression.Feedback(verdict, q.Answer))
				} else {
					fmt.Fprintf(out, "✗ %s\n", regression.Feedback(verdict, q.Answer))
				}
				answered = true
			}
		}
		fmt.Fprintf(out, "\n%d/%d correct\n", correct, asked)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.Flags().IntVarP(&quizRounds, "rounds", "n", 3, "number of questions (0 = until end of input)")
}
