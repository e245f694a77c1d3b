package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	app "vector-area/internal/application"
	"vector-area/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я считаю площадь чёрных участков в векторных макетах.

📎 Отправьте мне файл .ai или .eps, и я пришлю площадь в см² и превью растра.

📋 Команды:
/measure — начать измерение
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /measure
2️⃣ Пришлите файл .ai или .eps документом
3️⃣ Получите площадь чёрного в см² и картинку, по которой она посчитана

💡 Чёрным считается пиксель, у которого R+G+B не больше 50.
Прозрачный фон заливается белым.

📋 Команды:
/measure — начать измерение
/cancel — отменить операцию`

	msgAwaitingDocument = "📎 Пришлите файл .ai или .eps документом."
	msgCancelled        = "❌ Операция отменена. Отправьте /measure для нового измерения."
	msgSendDocument     = "📎 Сначала отправьте /measure, затем файл .ai или .eps."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Растеризую и считаю..."
	msgBusy             = "⏳ Предыдущий файл ещё обрабатывается."
	msgTooLarge         = "⚠️ Файл слишком большой."
	msgDownloadError    = "⚠️ Не удалось скачать файл. Попробуйте ещё раз."
	msgInvalidInput     = "⚠️ Принимаются только файлы .ai и .eps."
	msgUnavailable      = "⚠️ Конвертер сейчас недоступен. Попробуйте позже."
	msgConversionFailed = "⚠️ Не удалось растеризовать файл."
	msgInternalError    = "⚠️ Внутренняя ошибка при обработке файла."
)

// Measurer то, что нужно боту от сервиса измерения
type Measurer interface {
	Measure(ctx context.Context, filename string, data []byte) (*entity.Measurement, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	users     *app.UserService
	measurer  Measurer
	client    *http.Client
	logger    logrus.FieldLogger
	maxUpload int64
	wg        sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, measurer Measurer, maxUpload int64, logger logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram auth")
	}

	logger = logger.WithField("component", "telegram")
	logger.Infof("authorized on account %s", api.Self.UserName)

	return &Bot{
		api:       api,
		users:     users,
		measurer:  measurer,
		client:    &http.Client{},
		logger:    logger,
		maxUpload: maxUpload,
	}, nil
}

// Run обрабатывает обновления до отмены ctx и дожидается начатых измерений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendDocument)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	var (
		err   error
		reply string
	)
	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, userID, chatID)
		reply = msgStart
	case "help":
		reply = msgHelp
	case "measure":
		_, err = b.users.BeginMeasure(ctx, userID, chatID)
		reply = msgAwaitingDocument
	case "cancel":
		_, err = b.users.Cancel(ctx, userID, chatID)
		reply = msgCancelled
	default:
		reply = msgUnknownCommand
	}

	if err != nil {
		b.logger.WithError(err).Error("update user state")
	}
	b.sendMessage(chatID, reply)
}

// handleDocument запускает измерение в отдельной горутине, чтобы не блокировать приём обновлений
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	doc := msg.Document

	user, err := b.users.Get(ctx, userID, chatID)
	if err != nil {
		b.logger.WithError(err).Error("get user")
		return
	}
	if user.State == entity.StateProcessing {
		b.sendMessage(chatID, msgBusy)
		return
	}

	started, err := b.users.StartProcessing(ctx, userID, chatID)
	if err != nil {
		b.logger.WithError(err).Error("start processing")
		return
	}
	if !started {
		b.sendMessage(chatID, msgSendDocument)
		return
	}

	if b.maxUpload > 0 && int64(doc.FileSize) > b.maxUpload {
		b.sendMessage(chatID, msgTooLarge)
		b.reset(ctx, userID, chatID)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.reset(context.WithoutCancel(ctx), userID, chatID)
		b.measure(ctx, chatID, doc)
	}()
}

func (b *Bot) measure(ctx context.Context, chatID int64, doc *tgbotapi.Document) {
	log := b.logger.WithFields(logrus.Fields{"chat_id": chatID, "filename": doc.FileName})

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		log.WithError(err).Error("download document")
		b.sendMessage(chatID, msgDownloadError)
		return
	}

	m, err := b.measurer.Measure(ctx, doc.FileName, data)
	if err != nil {
		b.sendMessage(chatID, ErrorText(err))
		return
	}

	caption := ResultText(m)
	if len(m.Preview) == 0 {
		b.sendMessage(chatID, caption)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "preview.jpg", Bytes: m.Preview})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.WithError(err).Warn("send preview")
		b.sendMessage(chatID, caption)
	}
}

func (b *Bot) reset(ctx context.Context, userID, chatID int64) {
	if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
		b.logger.WithError(err).Error("reset user state")
	}
}

// ResultText текст ответа с результатом измерения
func ResultText(m *entity.Measurement) string {
	return fmt.Sprintf("✅ Площадь чёрного: %.4f см²\nЧёрных пикселей: %d из %d×%d при %g DPI",
		m.AreaCM2, m.BlackPixels, m.Width, m.Height, float64(m.Resolution))
}

// ErrorText текст ответа по классу ошибки
func ErrorText(err error) string {
	e := entity.AsError(err)
	switch e.Kind {
	case entity.KindInvalidInput:
		if e.Message == "" {
			return msgInvalidInput
		}
		return "⚠️ " + e.Message
	case entity.KindUnavailable:
		return msgUnavailable
	case entity.KindConversionFailed:
		return msgConversionFailed
	default:
		return msgInternalError
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, errors.Wrap(err, "get file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download file: status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if b.maxUpload > 0 {
		body = io.LimitReader(resp.Body, b.maxUpload+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	if b.maxUpload > 0 && int64(len(data)) > b.maxUpload {
		return nil, errors.New("file exceeds upload limit")
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Warn("send message")
	}
}
