package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"headdowell/internal/app"
	"headdowell/internal/config"
	"headdowell/internal/conversation"
	"headdowell/internal/history"
	"headdowell/internal/knowledge"
	"headdowell/internal/platform/logging"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if p := c.String("history"); p != "" {
		cfg.History.Path = p
	}
	// Log lines would interleave with the chat, so only warnings reach stderr.
	if cfg.Log.Level == "info" || cfg.Log.Level == "debug" {
		cfg.Log.Level = "warn"
	}
	logging.Setup(cfg.Log.Level, true)
	return cfg, nil
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start or resume a conversation",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Pause shown as a typing indicator before each reply",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			engine, err := app.NewEngine(cfg)
			if err != nil {
				return err
			}
			store := history.NewFileStore(cfg.History.Path)
			return runChat(c.Context, engine, store, c.App.Reader, c.App.Writer, c.Duration("delay"))
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Print the saved transcript",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			rec, err := history.NewFileStore(cfg.History.Path).Load()
			if err != nil {
				return err
			}
			if len(rec.Messages) == 0 {
				fmt.Fprintln(c.App.Writer, "No saved conversation.")
				return nil
			}
			for _, m := range rec.Messages {
				printMessage(c.App.Writer, m)
			}
			return nil
		},
	}
}

func taxonomyCommand() *cli.Command {
	return &cli.Command{
		Name:  "taxonomy",
		Usage: "List disorders, symptoms and their trigger phrases",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			tax, err := app.LoadTaxonomy(cfg.Dialogue.TaxonomyPath)
			if err != nil {
				return err
			}
			for _, d := range tax.Disorders {
				fmt.Fprintln(c.App.Writer, d.Name)
				for _, s := range d.Symptoms {
					fmt.Fprintf(c.App.Writer, "  %s (%d questions): %s\n", s.Name, len(s.Questions), strings.Join(s.Triggers, ", "))
				}
			}
			return nil
		},
	}
}

func therapiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "therapies",
		Usage: "Describe each disorder with its suggested therapies and coping strategies",
		Action: func(c *cli.Context) error {
			graph, err := knowledge.Default()
			if err != nil {
				return err
			}
			printKnowledge(c.App.Writer, graph)
			return nil
		},
	}
}

func printKnowledge(w io.Writer, graph *knowledge.Graph) {
	for _, name := range graph.Disorders() {
		fmt.Fprintf(w, "%s: %s\n", name, graph.Describe(name))
		for _, t := range graph.Therapies(name) {
			fmt.Fprintf(w, "  therapy: %s\n", t.Label)
		}
		for _, tip := range graph.Coping(name) {
			fmt.Fprintf(w, "  coping: %s\n", tip)
		}
	}
	fmt.Fprintln(w, "Professional support:")
	for _, line := range graph.Support() {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func printMessage(w io.Writer, m conversation.Message) {
	who := "HeadDoWell"
	if m.Sender == conversation.SenderUser {
		who = "You"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Text)
}

// resume rebuilds the session saved in store, or starts a new one.
func resume(engine *conversation.Engine, store *history.FileStore) (*conversation.Session, bool, error) {
	rec, err := store.Load()
	if err != nil {
		return nil, false, err
	}
	if len(rec.Messages) == 0 {
		return engine.NewSession(uuid.New()), false, nil
	}
	snap := conversation.Snapshot{ID: uuid.New(), Transcript: rec.Messages}
	if rec.State != nil {
		snap.State = *rec.State
	}
	return engine.Restore(snap), true, nil
}

func save(store *history.FileStore, sess *conversation.Session) error {
	state := sess.State()
	return store.Save(history.Record{Messages: sess.Transcript(), State: &state})
}

// runChat reads one submission per line until /done or end of input.
// /clear resets the conversation and deletes the saved transcript.
func runChat(ctx context.Context, engine *conversation.Engine, store *history.FileStore, in io.Reader, out io.Writer, delay time.Duration) error {
	sess, resumed, err := resume(engine, store)
	if err != nil {
		return err
	}
	if resumed {
		fmt.Fprintln(out, "Resuming your last conversation.")
	}
	for _, m := range sess.Transcript() {
		printMessage(out, m)
	}
	fmt.Fprintln(out, "Type /clear to start over or /done to leave.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/done":
			fmt.Fprintln(out, "Take care. Your conversation is saved.")
			return nil
		case "/clear":
			sess.Reset()
			if err := store.Clear(); err != nil {
				return err
			}
			for _, m := range sess.Transcript() {
				printMessage(out, m)
			}
			continue
		}

		turn := sess.Submit(ctx, line)
		if turn.Ignored {
			continue
		}
		for _, n := range turn.Notices {
			fmt.Fprintf(out, "(%s)\n", n)
		}
		for _, m := range turn.Replies {
			if delay > 0 {
				fmt.Fprintln(out, "HeadDoWell is typing...")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
			printMessage(out, m)
		}
		if err := save(store, sess); err != nil {
			return err
		}
	}
	return scanner.Err()
}
