package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lenaai/lenachat/pkg/backend"
	"github.com/lenaai/lenachat/pkg/channels"
	"github.com/lenaai/lenachat/pkg/config"
	"github.com/lenaai/lenachat/pkg/identity"
	"github.com/lenaai/lenachat/pkg/logger"
	"github.com/lenaai/lenachat/pkg/session"
	"github.com/lenaai/lenachat/pkg/store"
	"github.com/lenaai/lenachat/pkg/voice"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lenachat",
	Short: "LenaAI chat client",
	Long: `lenachat talks to a LenaAI conversational backend: text turns,
voice turns recorded from the microphone, and property albums. Run "serve"
for the browser chat or "chat" for a terminal session.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser chat",
	RunE:  runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat from the terminal",
	RunE:  runChat,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lenachat " + version)
	},
}

func init() {
	cobra.OnInitialize(func() { _ = godotenv.Load() })
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: <state dir>/config.json)")
	rootCmd.AddCommand(serveCmd, chatCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and wires identity, store, backend and controller.
func setup() (*config.Config, *session.Controller, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(config.DefaultConfig().StateDir(), "config.json")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)

	stateDir := cfg.StateDir()
	ids := identity.NewProvider(stateDir)
	st := store.New(stateDir)
	be := backend.New(cfg.Backend.BaseURL, cfg.Backend.ClientID, cfg.Backend.Platform)
	ctrl := session.NewController(st, ids, be, filepath.Join(stateDir, "media"), cfg.ProbeTimeout())

	logger.InfoCF("main", "Configured", map[string]interface{}{
		"backend":   cfg.Backend.BaseURL,
		"client_id": cfg.Backend.ClientID,
		"state_dir": stateDir,
	})
	return cfg, ctrl, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, ctrl, err := setup()
	if err != nil {
		return err
	}

	web := channels.NewWebChat(cfg.WebChat, ctrl, filepath.Join(cfg.StateDir(), "media"))
	if err := web.Start(context.Background()); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.InfoCF("main", "Shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return web.Stop(ctx)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, ctrl, err := setup()
	if err != nil {
		return err
	}

	for _, msg := range ctrl.Start() {
		printMessage(msg)
	}
	fmt.Printf("Chatting as %s. Commands: /voice, /like <property>, /clear, /quit\n", ctrl.Identity())

	rec := voice.NewRecorder(cfg.Voice.SampleRate)
	recOK := rec.Init() == nil
	if recOK {
		defer rec.Close()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return nil

		case line == "/clear":
			fmt.Printf("Chat cleared. New identity: %s\n", ctrl.Clear())

		case line == "/voice":
			if !recOK {
				fmt.Println("Microphone unavailable on this system.")
				continue
			}
			recordTurn(ctrl, rec, cfg, scanner)

		case strings.HasPrefix(line, "/like "):
			propertyID := strings.TrimSpace(strings.TrimPrefix(line, "/like "))
			if propertyID == "" {
				continue
			}
			for _, msg := range ctrl.LikeProperty(context.Background(), propertyID) {
				printMessage(msg)
			}

		default:
			for _, msg := range ctrl.SendText(context.Background(), line) {
				if msg.Sender == store.SenderServer {
					printMessage(msg)
				}
			}
		}
	}
}

// recordTurn records until the next Enter keypress, encodes the capture as
// WAV and runs the voice turn.
func recordTurn(ctrl *session.Controller, rec *voice.Recorder, cfg *config.Config, scanner *bufio.Scanner) {
	stop := make(chan struct{})
	type result struct {
		pcm []float32
		err error
	}
	done := make(chan result, 1)

	go func() {
		pcm, err := rec.Record(stop, cfg.MaxRecord())
		done <- result{pcm, err}
	}()

	fmt.Println("Recording... press Enter to stop.")
	scanner.Scan()
	close(stop)

	res := <-done
	if res.err != nil {
		if res.err == voice.ErrNoAudio {
			fmt.Println("Nothing recorded.")
		} else {
			fmt.Printf("Recording failed: %v\n", res.err)
		}
		return
	}

	blob, err := voice.EncodeWAV(res.pcm, rec.SampleRate())
	if err != nil {
		fmt.Printf("Encoding failed: %v\n", err)
		return
	}

	for _, msg := range ctrl.SendVoice(context.Background(), blob) {
		printMessage(msg)
	}
}

func printMessage(msg store.Message) {
	who := "lena"
	if msg.Sender == store.SenderUser {
		who = "you"
	}
	switch msg.Type {
	case store.KindVoice:
		if msg.Duration != "" {
			fmt.Printf("%s> [voice %s]\n", who, msg.Duration)
		} else {
			fmt.Printf("%s> [voice]\n", who)
		}
	case store.KindAlbum:
		fmt.Printf("%s> [album: %d photos]\n", who, len(msg.Album))
		for _, img := range msg.Album {
			fmt.Printf("      %s\n", img.Full)
		}
	default:
		fmt.Printf("%s> %s\n", who, msg.Content)
	}
}
