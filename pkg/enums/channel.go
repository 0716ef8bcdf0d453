package enums

import "fmt"

// Channel identifies a delivery mechanism.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

var validChannels = []Channel{
	ChannelPush,
	ChannelEmail,
	ChannelSMS,
}

// Channels returns the channels in dispatch order.
func Channels() []Channel {
	out := make([]Channel, len(validChannels))
	copy(out, validChannels)
	return out
}

func (c Channel) String() string {
	return string(c)
}

// IsValid checks whether the given channel matches the canonical enum.
func (c Channel) IsValid() bool {
	for _, candidate := range validChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChannel converts raw strings into Channel.
func ParseChannel(value string) (Channel, error) {
	for _, candidate := range validChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid channel %q", value)
}

// DeliveryOutcome tags the result of one channel attempt.
type DeliveryOutcome string

const (
	DeliveryOutcomeSent    DeliveryOutcome = "sent"
	DeliveryOutcomeFailed  DeliveryOutcome = "failed"
	DeliveryOutcomeSkipped DeliveryOutcome = "skipped"
)

func (o DeliveryOutcome) String() string {
	return string(o)
}
