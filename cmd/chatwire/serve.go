package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chilledoj/chatwire"
)

var (
	serveAddr   string
	serveHTTP   string
	chatLogFile string
	authRetries int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", chatwire.DefaultAddr, "TCP listen address")
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "Optional HTTP listen address for the websocket endpoint")
	serveCmd.Flags().StringVar(&chatLogFile, "log-file", chatwire.DefaultChatLogFile, "Chat history log file")
	serveCmd.Flags().IntVar(&authRetries, "auth-retries", 0, "Username attempts before AUTH_FAILED (0 = default)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	srv := chatwire.NewServer(chatwire.Options{
		Addr:        serveAddr,
		ChatLogFile: chatLogFile,
		AuthRetries: authRetries,
		Slogger:     slogger,
	})

	if serveHTTP != "" {
		go func() {
			slogger.Info("websocket endpoint listening", "addr", serveHTTP)
			if err := http.ListenAndServe(serveHTTP, srv.HTTPHandler()); err != nil {
				slogger.Error("http listener failed", "err", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		slogger.Info("shutting down", "signal", s)
		srv.Shutdown()
	}()

	return srv.ListenAndServe()
}
