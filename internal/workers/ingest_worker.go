package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/clinovia/intake/internal/rag"
)

// IngestWorkerPool consumes guideline documents from a Redis stream and
// feeds them into the retrieval index. One consumer group keeps the
// append-only log writes serialized even with several consumers.
type IngestWorkerPool struct {
	Redis      *redis.Client
	Store      *rag.VectorStore
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

const (
	DefaultStream = "guidelines:stream"
	statusChannel = "guidelines:status"
)

func (p *IngestWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Store == nil {
		return errors.New("IngestWorkerPool missing dependency: Redis/Store must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = "guideline-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *IngestWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *IngestWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	text := getStr("text")
	if text == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"doc_id":   getStr("id"),
	})

	meta := map[string]string{}
	if raw := getStr("meta"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			log.WithError(err).Warn("bad meta payload, ingesting without it")
			meta = map[string]string{}
		}
	}
	if src := getStr("source"); src != "" {
		meta["source"] = src
	}

	if err := p.Store.Add([]rag.IngestDoc{{ID: getStr("id"), Text: text, Meta: meta}}); err != nil {
		log.WithError(err).Error("guideline ingest failed")
		p.publishStatus(ctx, msg.ID, "failed")
		return
	}

	log.Debug("guideline ingested")
	p.publishStatus(ctx, msg.ID, "done")
}

func (p *IngestWorkerPool) publishStatus(ctx context.Context, msgID, status string) {
	payload, _ := json.Marshal(map[string]string{"id": msgID, "status": status})
	_ = p.Redis.Publish(ctx, statusChannel, string(payload)).Err()
}
