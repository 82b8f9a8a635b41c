package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/kisanmitra/internal/orchestrator"
	"github.com/user/kisanmitra/internal/render"
	"github.com/user/kisanmitra/internal/retrieval"
	"github.com/user/kisanmitra/internal/types"
)

var (
	askLanguage  string
	askQueryType string
	askImagePath string
	askAudioPath string
	askVerbose   bool
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askLanguage, "language", "en", "answer language code")
	askCmd.Flags().StringVar(&askQueryType, "query-type", "", "skip classification with an explicit intent")
	askCmd.Flags().StringVar(&askImagePath, "image", "", "path to a crop image to analyze")
	askCmd.Flags().StringVar(&askAudioPath, "audio", "", "path to an audio file to transcribe")
	askCmd.Flags().BoolVar(&askVerbose, "verbose", false, "print progress thoughts")
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question from the command line",
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	req := &types.Request{
		ID:       types.NewRequestID(),
		UserID:   "cli",
		Language: askLanguage,
	}
	switch {
	case askImagePath != "":
		data, err := os.ReadFile(askImagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		req.InputType = types.InputImage
		req.Content = data
		req.TextDescription = strings.Join(args, " ")
	case askAudioPath != "":
		data, err := os.ReadFile(askAudioPath)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		req.InputType = types.InputAudio
		req.Content = data
	default:
		if len(args) == 0 {
			return fmt.Errorf("a question, --image, or --audio is required")
		}
		req.InputType = types.InputText
		req.Content = []byte(strings.Join(args, " "))
	}
	if askQueryType != "" {
		req.QueryType = types.Intent(askQueryType)
	}

	sessions, turns, err := buildStores(cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	corpus := retrieval.NewStore(cfg.DataDir)

	var opts []orchestrator.Option
	if askVerbose {
		opts = append(opts, orchestrator.WithObserver(func(thought string) {
			fmt.Fprintf(os.Stderr, "... %s\n", thought)
		}))
	}

	orch, err := buildOrchestrator(cfg, sessions, turns, corpus, opts...)
	if err != nil {
		return err
	}

	env, err := orch.Handle(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Println(render.Envelope(env))
	if askVerbose {
		fmt.Fprintf(os.Stderr, "session: %s intent: %s\n", env.SessionID, env.IntentUsed)
	}
	return nil
}
