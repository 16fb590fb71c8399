package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
)

const welcomeText = `Olá! 👋

Eu monto um painel de vendas a partir da sua planilha.

O que eu faço:
- Leio arquivos CSV e Excel (xlsx), também compactados em zip, gz ou lz4
- Mostro total de vendas, transações, ticket médio e vendas por produto
- Calculo estatísticas descritivas e a distribuição dos valores
- Desenho a evolução das vendas por data, por categoria e por mês

Como usar:
1. Envie a planilha aqui no chat (ou qualquer mensagem para receber o link de envio pela web)
2. Use os comandos:
/overview - visão geral
/stats - estatísticas
/trends - tendências e sazonalidade
/explore X Y - dispersão entre duas colunas
/columns - colunas da planilha
/export - agregados em CSV (zip)
/map date=Data value=Valor product=Produto category=Categoria
/range 2024-03-01 2024-03-31 (sem datas volta ao período completo)

Envie números soltos ("1 2 3 4 5") para ver as estatísticas deles.`

func (b *telegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start", "help":
		b.reply(chatID, welcomeText)
	case "overview":
		b.sendView(ctx, chatID, models.ViewOverview, "", "")
	case "stats":
		b.sendView(ctx, chatID, models.ViewStatistics, "", "")
	case "trends":
		b.sendView(ctx, chatID, models.ViewTrends, "", "")
	case "explore":
		x, y := splitExploreArgs(args)
		b.sendView(ctx, chatID, models.ViewExploration, x, y)
	case "columns":
		b.handleColumns(chatID)
	case "export":
		b.handleExport(chatID)
	case "map":
		b.handleMap(ctx, chatID, args)
	case "range":
		b.handleRange(ctx, chatID, args)
	default:
		b.reply(chatID, "Comando desconhecido. Use /start para ver a lista de comandos.")
	}
}

// splitExploreArgs reads "/explore X Y"; column names with spaces go between quotes.
func splitExploreArgs(args string) (x, y string) {
	var fields []string
	for _, m := range exploreArgRe.FindAllStringSubmatch(args, -1) {
		if m[1] != "" {
			fields = append(fields, m[1])
		} else {
			fields = append(fields, m[2])
		}
	}
	if len(fields) > 0 {
		x = fields[0]
	}
	if len(fields) > 1 {
		y = fields[1]
	}
	return x, y
}

var exploreArgRe = regexp.MustCompile(`"([^"]+)"|(\S+)`)

func (b *telegramBot) handleColumns(chatID int64) {
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
	var sb strings.Builder
	for _, c := range sess.Table.Columns {
		fmt.Fprintf(&sb, "%s (%s)\n", c.Name, c.Type)
	}
	sb.WriteString("\n")
	sb.WriteString(describeSchema(sess.Schema))
	b.reply(chatID, sb.String())
}

func (b *telegramBot) handleExport(chatID int64) {
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
	files, err := ExportCSVs(sess.Table, analytics.Request{
		Schema:            sess.Schema,
		From:              st.from,
		To:                st.to,
		Bins:              b.cfg.HistogramBins,
		DefaultCategories: b.cfg.DefaultCategories,
	})
	if err != nil {
		b.reply(chatID, "⚠️ "+err.Error())
		return
	}
	data, err := ZipArchive(files)
	if err != nil {
		b.log.Error("export archive", "chat", chatID, "error", err)
		b.reply(chatID, "Erro ao gerar o arquivo.")
		return
	}
	doc := tgbotapi.NewDocumentUpload(chatID, tgbotapi.FileBytes{
		Name:  "vendas_" + time.Now().Format("20060102-150405") + ".zip",
		Bytes: data,
	})
	doc.Caption = "Agregados do período em CSV"
	if _, err := b.api.Send(doc); err != nil {
		b.log.Warn("send export", "chat", chatID, "error", err)
	}
}

var assignmentRe = regexp.MustCompile(`(date|value|product|category)\s*=`)

// parseAssignments reads "date=Data value=Valor total"; a value runs until the next key.
func parseAssignments(args string) map[string]string {
	out := make(map[string]string)
	locs := assignmentRe.FindAllStringSubmatchIndex(args, -1)
	for i, loc := range locs {
		end := len(args)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		key := args[loc[2]:loc[3]]
		out[key] = strings.Trim(strings.TrimSpace(args[loc[1]:end]), `"`)
	}
	return out
}

func (b *telegramBot) handleMap(ctx context.Context, chatID int64, args string) {
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
	assignments := parseAssignments(args)
	if len(assignments) == 0 {
		b.reply(chatID, "Uso: /map date=Data value=Valor product=Produto category=Categoria")
		return
	}

	schema := sess.Schema
	for key, column := range assignments {
		switch key {
		case "date":
			schema.DateField = column
		case "value":
			schema.ValueField = column
		case "product":
			schema.ProductField = column
		case "category":
			schema.CategoryField = column
		}
	}
	if _, err := analytics.Map(sess.Table, schema); err != nil {
		b.reply(chatID, "⚠️ "+err.Error())
		return
	}
	if err := b.store.SetSchema(sess.ID, schema); err != nil {
		b.reply(chatID, "A sessão expirou. Envie a planilha novamente.")
		return
	}
	b.reply(chatID, "Colunas atualizadas.\n"+describeSchema(schema))
	b.sendView(ctx, chatID, models.ViewOverview, "", "")
}

func (b *telegramBot) handleRange(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	var from, to *time.Time
	switch len(fields) {
	case 0:
	case 2:
		for i, f := range fields {
			d, err := time.Parse(analytics.DateLayout, f)
			if err != nil {
				b.reply(chatID, fmt.Sprintf("Data inválida %q: use AAAA-MM-DD", f))
				return
			}
			if i == 0 {
				from = &d
			} else {
				to = &d
			}
		}
		if from.After(*to) {
			b.reply(chatID, "⚠️ "+analytics.ErrInvalidRange.Error())
			return
		}
	default:
		b.reply(chatID, "Uso: /range 2024-03-01 2024-03-31")
		return
	}

	if !b.setRange(chatID, from, to) {
		b.reply(chatID, "Envie uma planilha primeiro.")
		return
	}
	if from == nil {
		b.reply(chatID, "Período completo selecionado.")
	} else {
		b.reply(chatID, fmt.Sprintf("Período: %s a %s", fields[0], fields[1]))
	}
	b.sendView(ctx, chatID, models.ViewOverview, "", "")
}
