package main

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/domain/models"
)

// larger images are sent as documents so telegram does not recompress them
const maxSizePhoto = 150000

// sendGraphVisualization sends one chart to the chat with a caption describing it.
func (b *telegramBot) sendGraphVisualization(graph []byte, chartName string, res *analytics.Result, chatID int64) {
	pngFile := tgbotapi.FileBytes{
		Name:  fmt.Sprintf("%s_%s.png", chartName, time.Now().Format("20060102-150405")),
		Bytes: graph,
	}
	caption := generateVizualDescription(chartName, res)

	var msg tgbotapi.Chattable
	if len(graph) < maxSizePhoto {
		photo := tgbotapi.NewPhotoUpload(chatID, pngFile)
		photo.Caption = caption
		msg = photo
	} else {
		doc := tgbotapi.NewDocumentUpload(chatID, pngFile)
		doc.Caption = caption
		msg = doc
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("send chart", "chat", chatID, "chart", chartName, "error", err)
		b.reply(chatID, fmt.Sprintf("Não foi possível enviar o gráfico %s: %v", chartName, err))
	}
}

func generateVizualDescription(chartName string, res *analytics.Result) string {
	period := fmt.Sprintf("%s a %s",
		res.Range.From.Format(analytics.DateLayout),
		res.Range.To.Format(analytics.DateLayout))
	switch chartName {
	case "products":
		return fmt.Sprintf("Vendas por produto (%s), %s", res.Schema.ProductField, period)
	case "histogram":
		return fmt.Sprintf("Distribuição de %s em %d faixas, %s", res.Schema.ValueField, len(res.Histogram), period)
	case "scatter":
		return fmt.Sprintf("%s x %s por %s", res.YField, res.XField, res.Schema.CategoryField)
	case "timeseries":
		return "Vendas ao longo do tempo, " + period
	case "categories":
		return fmt.Sprintf("Vendas por categoria: %v", res.SelectedCategories)
	case "seasonality":
		return fmt.Sprintf("Sazonalidade mensal por %s", res.Schema.CategoryField)
	}
	return models.View(chartName).Title()
}
