package compose

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NoSubjectPlaceholder is stored when the compose surface has no subject.
const NoSubjectPlaceholder = "(no subject)"

const trackingCallTimeout = 10 * time.Second

// Interceptor handles send clicks on qualified compose surfaces. The
// tracking call runs in its own goroutine and HandleSendClick returns
// without awaiting it: the host's own send handling must never wait on
// tracking. The injected beacon therefore races the host send pipeline;
// that race is accepted, losing it costs one tracked open, never the send.
//
// mu serializes the completion's session and tree writes against whoever
// owns the page. A monitor replaces it with its own lock at wiring time;
// standalone callers must serialize their HandleSendClick calls.
type Interceptor struct {
	locator  *Locator
	client   TrackerClient
	notifier Notifier
	log      *slog.Logger

	mu *sync.Mutex
	wg sync.WaitGroup
}

// NewInterceptor creates an Interceptor
func NewInterceptor(locator *Locator, client TrackerClient, notifier Notifier, log *slog.Logger) *Interceptor {
	if locator == nil {
		locator = NewLocator(DefaultChains())
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Interceptor{
		locator:  locator,
		client:   client,
		notifier: notifier,
		log:      log,
		mu:       &sync.Mutex{},
	}
}

// HandleSendClick runs the interception sequence for one send click. Every
// failure path falls through to the native send untouched.
func (i *Interceptor) HandleSendClick(session *Session) {
	if !session.TrackingEnabled {
		session.State = StateSentUntracked
		return
	}

	recipients := i.locator.Recipients(session.Surface)
	if len(recipients) == 0 {
		i.log.Warn("no recipients resolved, sending untracked", slog.String("session_id", session.ID))
		session.State = StateSentUntracked
		return
	}

	subject := i.subjectOf(session)
	body := session.Elements.Body

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), trackingCallTimeout)
		defer cancel()

		// The network call runs unlocked; only the completion touches
		// session state and the tree.
		created, err := i.client.Create(ctx, CreateRequest{
			Recipient: strings.Join(recipients, ", "),
			Subject:   subject,
		})

		i.mu.Lock()
		defer i.mu.Unlock()

		if err != nil || created.TrackingURL == "" {
			if err != nil {
				i.log.Error("tracking call failed", slog.String("session_id", session.ID), slog.Any("error", err))
			}
			session.State = StateSentUntracked
			i.notifier.Failure("Email sent without tracking")
			return
		}

		injectBeacon(body, created.TrackingURL)
		session.State = StateSentTracked
		i.notifier.Success("Email tracked")
		i.log.Info("beacon injected",
			slog.String("session_id", session.ID),
			slog.String("message_id", created.ID),
		)
	}()
}

// Wait blocks until in-flight tracking calls finish. Used on page unload
// and in tests.
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

func (i *Interceptor) subjectOf(session *Session) string {
	subject := nodeAttr(session.Elements.Subject, "value")
	if subject == "" {
		subject = nodeText(session.Elements.Subject)
	}
	if strings.TrimSpace(subject) == "" {
		return NoSubjectPlaceholder
	}
	return subject
}

// injectBeacon appends the zero-size beacon image to the message body.
func injectBeacon(body *html.Node, trackingURL string) {
	if body == nil {
		return
	}
	img := &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "src", Val: trackingURL},
			{Key: "width", Val: "1"},
			{Key: "height", Val: "1"},
			{Key: "style", Val: "display:none"},
			{Key: "alt", Val: ""},
		},
	}
	body.AppendChild(img)
}
