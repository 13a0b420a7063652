package wire

import (
	json "github.com/goccy/go-json"

	"github.com/coachpo/kalshi-gateway/errs"
)

// Command verbs.
const (
	CmdSubscribe          = "subscribe"
	CmdUnsubscribe        = "unsubscribe"
	CmdUpdateSubscription = "update_subscription"
	CmdListSubscriptions  = "list_subscriptions"
)

// Command is one outbound frame. ID correlates the eventual acknowledgement.
type Command struct {
	ID     uint64 `json:"id"`
	Cmd    string `json:"cmd"`
	Params any    `json:"params,omitempty"`
}

type unsubscribeParams struct {
	SID uint64 `json:"sid"`
}

// Subscribe builds a subscribe command.
func Subscribe(id uint64, params SubscriptionParams) Command {
	return Command{ID: id, Cmd: CmdSubscribe, Params: params}
}

// Unsubscribe builds an unsubscribe command for one subscription id.
func Unsubscribe(id, sid uint64) Command {
	return Command{ID: id, Cmd: CmdUnsubscribe, Params: unsubscribeParams{SID: sid}}
}

// UpdateSubscription builds an update_subscription command.
func UpdateSubscription(id uint64, params UpdateParams) Command {
	return Command{ID: id, Cmd: CmdUpdateSubscription, Params: params}
}

// ListSubscriptions builds a list_subscriptions command.
func ListSubscriptions(id uint64) Command {
	return Command{ID: id, Cmd: CmdListSubscriptions}
}

// Encode serialises the command as one text frame.
func (c Command) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errs.Kalshi(errs.CodeInvalid, errs.WithMessage("encode "+c.Cmd+" command"), errs.WithCause(err))
	}
	return data, nil
}
