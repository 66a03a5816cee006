package builder

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/latchjack/burger/pkg/burger"
	"go.uber.org/zap"
)

// Messages
type Load struct {
	Ingredients burger.Ingredients
}

type LoadFailed struct{}

type Add struct {
	Name string
}

type Remove struct {
	Name string
}

type Restore struct {
	State burger.State
}

type Snapshot struct{}

// Reply answers every message. Changed is false when the state was left as is.
type Reply struct {
	State   burger.State
	Changed bool
	Err     error
}

// sessionActor owns one builder's state. Messages are handled one at a
// time, so the last write wins.
type sessionActor struct {
	menu   *burger.Menu
	state  burger.State
	logger *zap.Logger
}

func newSessionActor(menu *burger.Menu, logger *zap.Logger) actor.Actor {
	return &sessionActor{
		menu:   menu,
		state:  menu.InitialState(),
		logger: logger,
	}
}

func (a *sessionActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Load:
		a.apply(ctx, burger.Action{Type: burger.SetIngredients, Ingredients: msg.Ingredients})

	case *LoadFailed:
		a.apply(ctx, burger.Action{Type: burger.FetchIngredientsFailed})

	case *Add:
		a.apply(ctx, burger.Action{Type: burger.AddIngredient, Ingredient: msg.Name})

	case *Remove:
		a.apply(ctx, burger.Action{Type: burger.RemoveIngredient, Ingredient: msg.Name})

	case *Restore:
		a.state = msg.State
		ctx.Respond(&Reply{State: a.state, Changed: true})

	case *Snapshot:
		ctx.Respond(&Reply{State: a.state})

	case *actor.Started:
		a.logger.Debug("Builder session started", zap.String("pid", ctx.Self().Id))

	case *actor.Stopped:
		a.logger.Debug("Builder session stopped", zap.String("pid", ctx.Self().Id))
	}
}

func (a *sessionActor) apply(ctx actor.Context, action burger.Action) {
	next, err := a.menu.Reduce(a.state, action)
	if err != nil {
		ctx.Respond(&Reply{State: a.state, Err: err})
		return
	}
	changed := !sameState(a.state, next)
	a.state = next
	ctx.Respond(&Reply{State: a.state, Changed: changed})
}

func sameState(a, b burger.State) bool {
	return a.Error == b.Error &&
		a.Purchasable == b.Purchasable &&
		a.TotalPrice.Equal(b.TotalPrice) &&
		(a.Ingredients == nil) == (b.Ingredients == nil) &&
		a.Ingredients.Equal(b.Ingredients)
}
