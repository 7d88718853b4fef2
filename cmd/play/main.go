package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"edu_arcade/internal/bot"
	"edu_arcade/internal/clock"
	"edu_arcade/internal/config"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"
	"edu_arcade/internal/logger"
	"edu_arcade/internal/transport"
)

const me = "me"

// play runs one session in the terminal. Trivia follows a host (live when
// -url answers, demo otherwise); board race and debate run locally against
// bots.
func main() {
	kind := flag.String("game", "trivia", "trivia | board_race | debate")
	hostURL := flag.String("url", "", "host websocket url for trivia, e.g. ws://127.0.0.1:8080/ws?game=trivia")
	bots := flag.Int("bots", 2, "number of bot opponents")
	name := flag.String("name", "You", "your name")
	flag.Parse()

	cfg := config.Load()
	// the terminal is for the game, logs go to stderr
	logger.InitWriter(os.Stderr, envOr("LOG_LEVEL", "warn"), false)
	log := logger.Get()

	content, err := game.LoadContent(cfg.ContentDir)
	if err != nil {
		logger.Fatal("load content", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := os.Stdout
	done := make(chan domain.Summary, 1)
	var seats []*bot.Seat
	hooks := game.Hooks{
		OnChange: func(snap domain.Snapshot) {
			for _, st := range seats {
				st.Observe(snap)
			}
			prompt(out, snap)
		},
		OnAnswer: func(res game.AnswerResult) {
			mark := "✗"
			if res.Correct {
				mark = "✓"
			}
			fmt.Fprintf(out, "  %s %s +%d (streak %d)\n", mark, res.PlayerID, res.Points, res.Streak)
		},
		OnPlay: func(p game.Play) {
			fmt.Fprintf(out, "  %s plays %q for %d\n", p.PlayerID, p.Card.Argument, p.Points)
		},
		OnComplete: func(sum domain.Summary) { done <- sum },
	}

	opts := game.Options{
		Players:       []domain.Player{{ID: me, Name: *name}},
		Scheduler:     clock.Real(),
		Announcer:     &textAnnouncer{w: out},
		Hooks:         hooks,
		Logger:        log,
		LocalPlayerID: me,
	}

	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1))
	k := domain.Kind(*kind)
	var tr transport.Transport
	switch k {
	case domain.KindTrivia:
		demo := transport.NewDemo(transport.DemoConfig{
			Questions:       game.Draw(rnd, content.Questions, cfg.TriviaTotalQuestions),
			Bots:            demoBots(*bots),
			LocalPlayerID:   me,
			LocalName:       *name,
			QuestionSeconds: cfg.TriviaQuestionSeconds,
			ResultDelay:     cfg.ResultDelay,
			LeadIn:          2 * time.Second,
			Rand:            rnd,
			Logger:          log,
		})
		// the session connects whatever is still disconnected on Start
		tr = demo
		if *hostURL != "" {
			tr = transport.ConnectOrDemo(ctx, transport.NewLive(transport.LiveConfig{URL: *hostURL, Logger: log}), demo, log)
		}
		defer tr.Close()
		if tr == transport.Transport(demo) {
			opts.Players = demo.Participants()
		}
		opts.Transport = tr
	case domain.KindBoardRace, domain.KindDebate:
		opts.Questions = content.Questions
		opts.Cards = content.Cards
		for i := 1; i <= *bots; i++ {
			opts.Players = append(opts.Players, domain.Player{ID: fmt.Sprintf("bot%d", i), Name: fmt.Sprintf("Bot %d", i)})
		}
	default:
		logger.Fatal("unknown game", "game", *kind)
	}

	sess, err := cfg.Factory().Create(k, opts)
	if err != nil {
		logger.Fatal("create session", "err", err)
	}
	defer sess.Close()

	sched := clock.Real()
	for _, p := range opts.Players {
		if p.ID == me || k == domain.KindTrivia {
			continue
		}
		st := bot.NewSeat(bot.New(p.ID, 0.7, nil), sess, sched, 1500*time.Millisecond, log)
		defer st.Stop()
		seats = append(seats, st)
	}

	if err := sess.Start(ctx); err != nil {
		logger.Fatal("start", "err", err)
	}
	go readInput(os.Stdin, out, sess)

	select {
	case sum := <-done:
		printSummary(out, sum)
	case <-ctx.Done():
		fmt.Fprintln(out, "\nbye")
	}
}

func demoBots(n int) []transport.DemoBot {
	names := []string{"Ada", "Brahe", "Curie", "Darwin", "Euler"}
	out := make([]transport.DemoBot, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, transport.DemoBot{
			ID:       fmt.Sprintf("bot%d", i+1),
			Name:     names[i%len(names)],
			Accuracy: 0.5 + 0.1*float64(i%4),
			MaxDelay: 10,
		})
	}
	return out
}

type textAnnouncer struct {
	w io.Writer
}

func (a *textAnnouncer) Announce(q domain.Question) {
	fmt.Fprintf(a.w, "\n%s\n", q.Prompt)
	for i, o := range q.Options {
		fmt.Fprintf(a.w, "  %d) %s\n", i+1, o)
	}
}

func (a *textAnnouncer) Close() error { return nil }

func prompt(w io.Writer, snap domain.Snapshot) {
	cur, ok := snap.Current()
	if snap.Kind == domain.KindTrivia || !ok || cur.ID != me {
		return
	}
	switch {
	case snap.Kind == domain.KindBoardRace && snap.Phase == domain.PhaseWaiting:
		p := snap.Players[snap.CurrentPlayer]
		fmt.Fprintf(w, "\nyou are on square %d/%d, press enter to roll\n", p.Position, len(snap.Board)-1)
	case snap.Kind == domain.KindDebate && snap.Phase == domain.PhaseWaiting:
		fmt.Fprintf(w, "\nround %d/%d, pick a card:\n", snap.Round, snap.TotalRounds)
		for i, c := range snap.Offer {
			fmt.Fprintf(w, "  %d) %s (%d)\n", i+1, c.Argument, c.Points)
		}
	}
}

// readInput maps each line onto the action the current phase expects.
func readInput(r io.Reader, w io.Writer, sess *game.Session) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		snap := sess.Snapshot()
		n, _ := strconv.Atoi(line)

		var err error
		switch {
		case snap.Phase == domain.PhaseQuestion:
			var res game.AnswerResult
			res, err = sess.SubmitAnswer(me, n-1)
			if err == nil && res.Pending {
				fmt.Fprintln(w, "  answer sent, waiting for the host")
			}
		case snap.Kind == domain.KindBoardRace:
			var roll int
			roll, err = sess.Roll(me)
			if err == nil {
				fmt.Fprintf(w, "  rolled %d\n", roll)
			}
		case snap.Kind == domain.KindDebate && n >= 1 && n <= len(snap.Offer):
			_, err = sess.PlayCard(me, snap.Offer[n-1].ID)
		default:
			continue
		}
		if err != nil {
			fmt.Fprintf(w, "  (%v)\n", err)
		}
	}
}

func printSummary(w io.Writer, sum domain.Summary) {
	fmt.Fprintf(w, "\ngame over (%s) after %ds\n", sum.Reason, sum.TimeSpent)
	for i, fs := range sum.FinalScores {
		fmt.Fprintf(w, "%2d. %-10s %5d\n", i+1, fs.Name, fs.Score)
	}
	if sum.WinningTeam != "" {
		fmt.Fprintf(w, "winning side: %s\n", sum.WinningTeam)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
