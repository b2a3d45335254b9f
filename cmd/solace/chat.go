package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the pipeline on the terminal without starting the server.",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := loadProfile()

		ctx, stop := signal.NotifyContext(context.Background(), terminationSignals...)
		defer stop()

		rt, err := newRuntime(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer rt.Close()

		fmt.Println("Solace interactive chat. Type quit, exit, or bye to leave.")

		session := rt.sessions.Get("")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			switch strings.ToLower(line) {
			case "quit", "exit", "bye":
				fmt.Println("Take care of yourself. Goodbye!")
				rt.sessions.End(session.ID)
				return nil
			}

			_, result := rt.sessions.Resolve(ctx, rt.pipeline, session.ID, line)
			fmt.Println(result.Text)

			if ctx.Err() != nil {
				break
			}
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
