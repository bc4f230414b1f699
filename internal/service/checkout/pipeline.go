// Package checkout walks a session through identification, delivery,
// personalization and payment, staging each stage's fields in the session
// store until the order is confirmed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"florist-storefront/internal/domain"
	"florist-storefront/internal/kv"
)

type cartSource interface {
	Items() []domain.CartLineItem
	Clear(ctx context.Context)
}

type orderStore interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	Update(ctx context.Context, o domain.Order) error
}

type itemSaver interface {
	Save(ctx context.Context, orderID string, items []domain.CartLineItem) bool
}

// Publisher announces committed orders. Failures never fail a submission.
type Publisher interface {
	OrderCreated(ctx context.Context, order domain.Order, items []domain.CartLineItem) error
}

// Deps are the collaborators shared by every session's pipeline.
type Deps struct {
	Orders    orderStore
	Items     itemSaver
	Publisher Publisher
	Logger    *log.Logger
}

// View is what a stage shows on entry. When Redirect is set the stage is
// not reachable and the caller should send the buyer there instead.
type View struct {
	Stage    Stage
	Redirect Stage
	Fields   Fields
	OrderID  string
}

// stagedOrder is the value kept under KeyOrderID. Committed flips once the
// order lines are saved and the cart is cleared.
type stagedOrder struct {
	ID        string `json:"id"`
	Committed bool   `json:"committed"`
}

// Pipeline is the checkout of one session. Its staged state lives in the
// session's key-value store.
type Pipeline struct {
	store     kv.Store
	cart      cartSource
	orders    orderStore
	items     itemSaver
	publisher Publisher
	logger    *log.Logger
	validate  *validator.Validate
}

// New returns the pipeline for the session whose keys live in store.
func New(store kv.Store, cart cartSource, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{
		store:     store,
		cart:      cart,
		orders:    deps.Orders,
		items:     deps.Items,
		publisher: deps.Publisher,
		logger:    logger,
		validate:  validator.New(),
	}
}

// Enter returns the view of stage. Data-entry stages carry their staged
// fields; entering Confirmation clears the checkout scratch state.
func (p *Pipeline) Enter(ctx context.Context, stage Stage) (View, error) {
	if !stage.Valid() {
		return View{}, fmt.Errorf("%w: %d", ErrUnknownStage, int(stage))
	}
	if stage == StageConfirmation {
		return p.enterConfirmation(ctx)
	}

	missing, err := p.firstMissing(ctx, stage)
	if err != nil {
		return View{}, err
	}
	if missing != 0 {
		return View{Stage: stage, Redirect: missing}, nil
	}

	view := View{Stage: stage, Fields: Fields{}}
	if key := stage.stagedKey(); key != "" {
		fields, err := p.loadFields(ctx, key)
		if err != nil {
			return View{}, err
		}
		view.Fields = fields
	}
	return view, nil
}

// Continue validates and stages the fields of a data-entry stage and
// returns the stage that follows it.
func (p *Pipeline) Continue(ctx context.Context, stage Stage, fields Fields) (Stage, error) {
	if stage.stagedKey() == "" {
		return stage, fmt.Errorf("%w: %s", ErrNotSubmittable, stage)
	}
	if err := p.requireReachable(ctx, stage); err != nil {
		return stage, err
	}

	cleaned := clean(stage, fields)
	if err := validateStage(p.validate, stage, cleaned); err != nil {
		return stage, err
	}

	if err := kv.SetJSON(ctx, p.store, stage.stagedKey(), cleaned); err != nil {
		return stage, fmt.Errorf("stage %s: %w", stage, err)
	}
	if stage == StagePersonalization {
		if err := kv.SetJSON(ctx, p.store, KeyStep3Complete, true); err != nil {
			return stage, fmt.Errorf("stage %s: %w", stage, err)
		}
	}
	return stage.Next(), nil
}

// SubmitPayment creates the order from the staged state and the current
// cart, attaches the cart lines and clears the cart. A failed attempt
// leaves the staged state and the cart in place; resubmitting rewrites the
// order that was already created from the cart as it is then.
func (p *Pipeline) SubmitPayment(ctx context.Context, fields Fields) (string, error) {
	if err := p.requireReachable(ctx, StagePayment); err != nil {
		return "", err
	}
	payment := clean(StagePayment, fields)
	if err := validateStage(p.validate, StagePayment, payment); err != nil {
		return "", err
	}

	lines := p.cart.Items()
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	order, err := p.buildOrder(ctx, payment, lines)
	if err != nil {
		return "", err
	}
	if order, err = p.resolveOrder(ctx, order); err != nil {
		return "", err
	}

	if !p.items.Save(ctx, order.ID, lines) {
		p.logger.Printf("checkout: order items not saved order_id=%s", order.ID)
		return "", fmt.Errorf("%w: order items not saved", ErrSubmitFailed)
	}

	// The cart is cleared only after the order is marked committed.
	if err := kv.SetJSON(ctx, p.store, KeyOrderID, stagedOrder{ID: order.ID, Committed: true}); err != nil {
		p.logger.Printf("checkout: mark order committed order_id=%s error=%v", order.ID, err)
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	p.cart.Clear(ctx)
	p.logger.Printf("checkout: order submitted order_id=%s lines=%d total=%s", order.ID, len(lines), order.Total.StringFixed(2))

	if p.publisher != nil {
		if err := p.publisher.OrderCreated(ctx, order, lines); err != nil {
			p.logger.Printf("checkout: publish order.created order_id=%s error=%v", order.ID, err)
		}
	}
	return order.ID, nil
}

// Confirm clears the staged checkout keys and returns the order id that
// was staged, if any. It is safe to call repeatedly and never touches the
// cart.
func (p *Pipeline) Confirm(ctx context.Context) (string, error) {
	var staged stagedOrder
	if err := kv.GetJSON(ctx, p.store, KeyOrderID, &staged); err != nil && !errors.Is(err, kv.ErrNotFound) {
		p.logger.Printf("checkout: read staged order error=%v", err)
	}
	if err := p.store.Delete(ctx, KeyIdentification, KeyDelivery, KeyPersonalization, KeyStep3Complete, KeyOrderID); err != nil {
		return staged.ID, fmt.Errorf("clear checkout state: %w", err)
	}
	return staged.ID, nil
}

func (p *Pipeline) enterConfirmation(ctx context.Context) (View, error) {
	var staged stagedOrder
	err := kv.GetJSON(ctx, p.store, KeyOrderID, &staged)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		// Nothing was submitted. A reload after confirmation finds no
		// staged state at all; anything else is an unfinished checkout
		// that must not be wiped.
		missing, err := p.firstMissing(ctx, StagePayment)
		if err != nil {
			return View{}, err
		}
		switch missing {
		case StageIdentification:
			return View{Stage: StageConfirmation}, nil
		case 0:
			return View{Stage: StageConfirmation, Redirect: StagePayment}, nil
		default:
			return View{Stage: StageConfirmation, Redirect: missing}, nil
		}
	case err != nil:
		return View{}, err
	case !staged.Committed:
		return View{Stage: StageConfirmation, Redirect: StagePayment}, nil
	}

	id, err := p.Confirm(ctx)
	if err != nil {
		return View{}, err
	}
	return View{Stage: StageConfirmation, OrderID: id}, nil
}

// resolveOrder persists order. An order staged by an earlier failed attempt
// is rewritten in place so it matches the lines about to be saved; otherwise
// a new order is created and its id staged.
func (p *Pipeline) resolveOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var staged stagedOrder
	err := kv.GetJSON(ctx, p.store, KeyOrderID, &staged)
	switch {
	case err == nil && staged.ID != "" && !staged.Committed:
		order.ID = staged.ID
		err := p.orders.Update(ctx, order)
		if err == nil {
			p.logger.Printf("checkout: retrying with staged order order_id=%s", staged.ID)
			return order, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			p.logger.Printf("checkout: update staged order order_id=%s error=%v", staged.ID, err)
			return domain.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
		}
		p.logger.Printf("checkout: staged order vanished order_id=%s", staged.ID)
		order.ID = ""
	case err != nil && !errors.Is(err, kv.ErrNotFound):
		p.logger.Printf("checkout: read staged order error=%v", err)
		return domain.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	created, err := p.orders.Create(ctx, order)
	if err != nil {
		p.logger.Printf("checkout: create order error=%v", err)
		return domain.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if err := kv.SetJSON(ctx, p.store, KeyOrderID, stagedOrder{ID: created.ID}); err != nil {
		p.logger.Printf("checkout: stage order id order_id=%s error=%v", created.ID, err)
	}
	return *created, nil
}

// buildOrder merges the staged stages, the payment fields and the cart lines
// being submitted. The total is taken from lines, not from the live cart.
func (p *Pipeline) buildOrder(ctx context.Context, payment Fields, lines []domain.CartLineItem) (domain.Order, error) {
	details := map[string]map[string]string{"payment": payment}
	for _, stage := range []Stage{StageIdentification, StageDelivery, StagePersonalization} {
		fields, err := p.loadFields(ctx, stage.stagedKey())
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
		}
		details[stage.String()] = fields
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	ident := details[StageIdentification.String()]
	return domain.Order{
		CustomerName:  ident["name"],
		CustomerEmail: ident["email"],
		CustomerPhone: ident["phone"],
		DeliveryDate:  details[StageDelivery.String()]["delivery_date"],
		PaymentMethod: payment["payment_method"],
		Total:         total,
		Status:        domain.OrderStatusPending,
		Details:       details,
	}, nil
}

func (p *Pipeline) requireReachable(ctx context.Context, stage Stage) error {
	missing, err := p.firstMissing(ctx, stage)
	if err != nil {
		return err
	}
	if missing != 0 {
		return &LockedError{Requested: stage, Missing: missing}
	}
	return nil
}

// firstMissing returns the earliest stage before target whose staged state
// is absent, or 0 when every prior stage is complete.
func (p *Pipeline) firstMissing(ctx context.Context, target Stage) (Stage, error) {
	for s := StageIdentification; s < target && s < StagePayment; s++ {
		ok, err := p.store.Exists(ctx, s.gateKey())
		if err != nil {
			return 0, fmt.Errorf("check %s: %w", s, err)
		}
		if !ok {
			return s, nil
		}
	}
	return 0, nil
}

func (p *Pipeline) loadFields(ctx context.Context, key string) (Fields, error) {
	fields := Fields{}
	err := kv.GetJSON(ctx, p.store, key, &fields)
	if errors.Is(err, kv.ErrNotFound) {
		return Fields{}, nil
	}
	if err != nil {
		return nil, err
	}
	return fields, nil
}
