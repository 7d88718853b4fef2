package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"sync"
	"time"

	"edu_arcade/internal/bot"
	"edu_arcade/internal/logger"
	"edu_arcade/internal/transport"
)

// ws_smoke seats N bots in one room of a running host and waits for the
// game to end.
func main() {
	addr := flag.String("addr", "127.0.0.1:"+envOr("APP_PORT", "8080"), "host address")
	kind := flag.String("game", "trivia", "trivia | board_race | debate")
	room := flag.String("room", "", "room code; empty matchmakes")
	players := flag.Int("players", 2, "number of bots")
	accuracy := flag.Float64("accuracy", 0.7, "bot answer accuracy")
	think := flag.Duration("think", 500*time.Millisecond, "bot think time")
	timeout := flag.Duration("timeout", 10*time.Minute, "give up after")
	flag.Parse()

	logger.Init(envOr("LOG_LEVEL", "info"), false)
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed bool
		lives  []*transport.Live
	)
	for i := 1; i <= *players; i++ {
		id := fmt.Sprintf("smoke-%d", i)
		q := url.Values{"game": {*kind}, "player": {id}, "name": {fmt.Sprintf("Bot %d", i)}}
		if *room != "" {
			q.Set("room", *room)
		}
		live := transport.NewLive(transport.LiveConfig{
			URL:    "ws://" + *addr + "/ws?" + q.Encode(),
			Logger: log,
		})
		r := bot.NewRemote(bot.New(id, *accuracy, rand.New(rand.NewPCG(uint64(i), uint64(time.Now().UnixNano())))), live, nil, *think, log)
		r.Attach()
		if err := live.Connect(ctx); err != nil {
			logger.Fatal("dial", "player", id, "err", err)
		}
		defer live.Close()
		lives = append(lives, live)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.Detach()
			ended, err := r.Wait(ctx)
			if err != nil {
				log.Error("no result", "player", id, "err", err)
				mu.Lock()
				failed = true
				mu.Unlock()
				return
			}
			log.Info("game ended", "player", id, "winner", ended.WinnerID, "reason", ended.Reason, "scores", ended.FinalScores)
		}()
	}

	// private rooms wait for an explicit start
	if *room != "" && len(lives) > 0 {
		// let the last join land first
		time.Sleep(200 * time.Millisecond)
		if err := lives[0].Send(ctx, transport.Start{}); err != nil {
			logger.Fatal("start", "err", err)
		}
	}

	wg.Wait()
	if failed {
		os.Exit(1)
	}
	log.Info("smoke test finished")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
