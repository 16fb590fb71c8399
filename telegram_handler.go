package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	uuid "github.com/satori/go.uuid"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/config"
	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/logger"
	"github.com/pivolan/sales_analyzer/session"
	"github.com/pivolan/sales_analyzer/table"
)

// telegram caps a text message at 4096 characters
const maxMessageLen = 4000

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// chatState is what a chat has selected: its table and date range.
type chatState struct {
	sessionID string
	from, to  *time.Time
}

type pendingLink struct {
	chatID  int64
	created time.Time
}

type telegramBot struct {
	api    botAPI
	store  *session.Store
	cfg    *config.Config
	log    *logger.Logger
	client *http.Client

	mu    sync.Mutex
	chats map[int64]*chatState
	links map[string]pendingLink
}

func newTelegramBot(api botAPI, store *session.Store, cfg *config.Config, log *logger.Logger) *telegramBot {
	return &telegramBot{
		api:    api,
		store:  store,
		cfg:    cfg,
		log:    log.WithComponent("telegram"),
		client: &http.Client{Timeout: 2 * time.Minute},
		chats:  make(map[int64]*chatState),
		links:  make(map[string]pendingLink),
	}
}

// Run handles updates until ctx is done or the channel closes.
func (b *telegramBot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	ctx = logger.WithContext(ctx, b.log)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *telegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	switch {
	case message.Document != nil:
		b.handleDocument(ctx, message)
	case message.IsCommand():
		b.handleCommand(ctx, message)
	case message.Text != "":
		b.handleText(ctx, message)
	}
}

func (b *telegramBot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("send message", "chat", chatID, "error", err)
	}
}

// replyPre sends a monospaced table, or a .txt document when it is too long for a message.
func (b *telegramBot) replyPre(chatID int64, text string) {
	if len(text) > maxMessageLen {
		doc := tgbotapi.NewDocumentUpload(chatID, tgbotapi.FileBytes{
			Name:  "relatorio_" + time.Now().Format("20060102-150405") + ".txt",
			Bytes: []byte(text),
		})
		if _, err := b.api.Send(doc); err != nil {
			b.log.Warn("send report document", "chat", chatID, "error", err)
		}
		return
	}
	msg := tgbotapi.NewMessage(chatID, "<pre>\n"+html.EscapeString(text)+"\n</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send report", "chat", chatID, "error", err)
	}
}

func (b *telegramBot) handleText(ctx context.Context, message *tgbotapi.Message) {
	if numbers := ExtractNumbers(message.Text); len(numbers) > 0 {
		b.reply(message.Chat.ID, FormatStats(AnalyzeNumbers(numbers)))
		return
	}
	link := b.newLink(message.Chat.ID)
	b.reply(message.Chat.ID, "Envie a planilha por este link: "+b.cfg.PublicURL+"/?link="+link)
}

func (b *telegramBot) newLink(chatID int64) string {
	id := uuid.NewV4().String()
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, l := range b.links {
		if time.Since(l.created) > b.cfg.SessionTTL {
			delete(b.links, k)
		}
	}
	b.links[id] = pendingLink{chatID: chatID, created: time.Now()}
	return id
}

// UploadCompleted reports a web upload to the chat that asked for the link.
func (b *telegramBot) UploadCompleted(ctx context.Context, link string, sess session.Session) {
	b.mu.Lock()
	pl, ok := b.links[link]
	delete(b.links, link)
	if ok && time.Since(pl.created) <= b.cfg.SessionTTL {
		b.chats[pl.chatID] = &chatState{sessionID: sess.ID}
	} else {
		ok = false
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	_ = b.store.Link(sess.ID, pl.chatID)
	b.reply(pl.chatID, fmt.Sprintf("Arquivo %s recebido: %d linhas.", sess.FileName, len(sess.Table.Rows)))
	b.sendView(ctx, pl.chatID, models.ViewOverview, "", "")
}

func (b *telegramBot) chat(chatID int64) (chatState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.chats[chatID]
	if !ok {
		return chatState{}, false
	}
	return *st, true
}

func (b *telegramBot) setRange(chatID int64, from, to *time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.chats[chatID]
	if ok {
		st.from, st.to = from, to
	}
	return ok
}

func (b *telegramBot) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	log := logger.FromContext(ctx)
	chatID := message.Chat.ID
	doc := message.Document
	if int64(doc.FileSize) > b.cfg.MaxUploadBytes {
		b.reply(chatID, fmt.Sprintf("Arquivo maior que %d MB. Envie uma mensagem qualquer para receber o link de envio pela web.",
			b.cfg.MaxUploadBytes>>20))
		return
	}

	fileURL, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		log.Warn("get file url", "chat", chatID, "error", err)
		b.reply(chatID, "Erro ao baixar o arquivo. Envie uma mensagem qualquer para receber o link de envio pela web.")
		return
	}
	t, err := b.download(ctx, fileURL, doc.FileName)
	if err != nil {
		log.Warn("load document", "chat", chatID, "file", doc.FileName, "error", err)
		b.reply(chatID, "Não foi possível ler o arquivo: "+err.Error())
		return
	}

	schema, suggestErr := table.SuggestSchema(t)
	sess := b.store.Create(doc.FileName, t, schema)
	_ = b.store.Link(sess.ID, chatID)
	b.mu.Lock()
	b.chats[chatID] = &chatState{sessionID: sess.ID}
	b.mu.Unlock()
	log.Info("table uploaded", "chat", chatID, "session", sess.ID, "rows", len(t.Rows))

	b.reply(chatID, fmt.Sprintf("Arquivo %s: %d linhas, %d colunas.\n%s",
		doc.FileName, len(t.Rows), len(t.Columns), describeSchema(schema)))
	if suggestErr != nil {
		b.reply(chatID, "Escolha as colunas com /map date=... value=... product=... category=... (veja /columns)")
		return
	}
	b.sendView(ctx, chatID, models.ViewOverview, "", "")
}

func (b *telegramBot) download(ctx context.Context, fileURL, fileName string) (*models.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	return table.Load(fileName, io.LimitReader(resp.Body, b.cfg.MaxUploadBytes))
}

func describeSchema(s models.Schema) string {
	return fmt.Sprintf("Data: %s\nValor: %s\nProduto: %s\nCategoria: %s",
		orDash(s.DateField), orDash(s.ValueField), orDash(s.ProductField), orDash(s.CategoryField))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sendView runs one view for the chat's table and sends its tables and charts.
func (b *telegramBot) sendView(ctx context.Context, chatID int64, view models.View, xField, yField string) {
	st, ok := b.chat(chatID)
	if !ok {
		b.reply(chatID, "Envie uma planilha primeiro.")
		return
	}
	sess, err := b.store.Get(st.sessionID)
	if err != nil {
		b.reply(chatID, "A sessão expirou. Envie a planilha novamente.")
		return
	}

	res, err := analytics.Run(sess.Table, analytics.Request{
		Schema:            sess.Schema,
		View:              view,
		From:              st.from,
		To:                st.to,
		XField:            xField,
		YField:            yField,
		Bins:              b.cfg.HistogramBins,
		DefaultCategories: b.cfg.DefaultCategories,
	})
	if err != nil {
		if !analytics.IsFatal(err) {
			logger.FromContext(ctx).Error("pipeline failed", "chat", chatID, "error", err)
		}
		b.reply(chatID, "⚠️ "+err.Error())
		return
	}

	b.replyPre(chatID, FormatResult(res, b.cfg.Currency))
	for _, name := range chartsFor(res) {
		graph, err := drawChart(name, res, b.cfg.Currency)
		if err != nil {
			logger.FromContext(ctx).Warn("draw chart", "chart", name, "error", err)
			continue
		}
		b.sendGraphVisualization(graph, name, res, chatID)
	}
}
