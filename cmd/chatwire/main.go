package main

import (
	"log"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "chatwire",
	Short: "Binary-framed TCP chat server and client",
	Long: `Chatwire is a small real-time chat service speaking a length-prefixed
binary protocol over TCP (and optionally websockets).

- chatwire serve    runs the server
- chatwire connect  runs the interactive client`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}
