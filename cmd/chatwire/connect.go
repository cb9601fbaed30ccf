package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chilledoj/chatwire"
)

var connectAddr string

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a chat server interactively",
	Long: `Connect opens an interactive session. Input lines are sent as public
messages, except:

  /bye         leave the chat
  /list        list online users
  @user text   send a private message to user`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectAddr, "addr", "127.0.0.1:12345", "Server address")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	conn, err := chatwire.Dial(connectAddr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", connectAddr, err)
	}
	defer conn.Close()

	stdin := bufio.NewScanner(os.Stdin)
	if err := authenticate(conn, stdin); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		receiveLoop(conn)
	}()

	inputLoop(conn, stdin)
	<-done
	return nil
}

// authenticate answers the server's handshake until the username is
// accepted or the server gives up.
func authenticate(conn chatwire.Conn, stdin *bufio.Scanner) error {
	for {
		m, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("disconnected during authentication: %w", err)
		}
		if m.Type != chatwire.CommandResponse {
			continue
		}
		switch m.Content {
		case chatwire.CmdEnterUsername:
			fmt.Print("Please enter your username: ")
			if !stdin.Scan() {
				return fmt.Errorf("stdin closed")
			}
			reply := chatwire.Message{
				Type:      chatwire.CommandResponse,
				Timestamp: 0, // server stamps it
				Content:   strings.TrimSpace(stdin.Text()),
			}
			if err := conn.WriteMessage(reply); err != nil {
				return err
			}
		case chatwire.CmdUsernameAccepted:
			color.Green("Welcome! You are connected.")
			return nil
		case chatwire.CmdUsernameTaken:
			color.Yellow("Username already taken, try another.")
		case chatwire.CmdAuthFailed:
			return fmt.Errorf("authentication failed: too many attempts")
		}
	}
}

func inputLoop(conn chatwire.Conn, stdin *bufio.Scanner) {
	for stdin.Scan() {
		line := stdin.Text()
		if line == "" {
			continue
		}

		m := chatwire.Message{Timestamp: 0}
		switch {
		case line == "/bye":
			m.Type = chatwire.CommandResponse
			m.Content = chatwire.CmdBye
			conn.WriteMessage(m)
			return
		case line == "/list":
			m.Type = chatwire.UserListRequest
			conn.WriteMessage(m)
		case strings.HasPrefix(line, "@"):
			target, content, ok := strings.Cut(line[1:], " ")
			if !ok || target == "" {
				color.Red("Usage: @user message")
				continue
			}
			m.Type = chatwire.PrivateMessage
			m.Target = target
			m.Content = content
			conn.WriteMessage(m)
		default:
			m.Type = chatwire.PublicMessage
			m.Content = line
			conn.WriteMessage(m)
		}
	}
}

func receiveLoop(conn chatwire.Conn) {
	for {
		m, err := conn.ReadMessage()
		if err != nil {
			fmt.Println("Disconnected from server.")
			return
		}

		if m.Type == chatwire.CommandResponse && m.Content == chatwire.CmdGoodbye {
			return
		}
		if name, ok := strings.CutPrefix(m.Content, chatwire.UserNotFoundPrefix); ok {
			color.Red("User not found: %s", name)
			continue
		}

		switch m.Type {
		case chatwire.UserListResponse:
			color.Cyan("Online: %s", m.Content)
		case chatwire.SystemAnnouncement:
			color.Yellow("[SERVER] %s", m.Content)
		case chatwire.PrivateMessage:
			color.Magenta("[PM from %s] %s", m.Sender, m.Content)
		case chatwire.PublicMessage:
			fmt.Printf("%s: %s\n", m.Sender, m.Content)
		case chatwire.UserJoined:
			color.Green("* %s joined the chat *", m.Sender)
		case chatwire.UserLeft:
			color.Red("* %s left the chat *", m.Sender)
		}
	}
}
