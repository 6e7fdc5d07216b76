package dispatchkit

import "reflect"

// TypeTag identifies exactly one payload type at runtime. Two tags compare
// equal iff they denote the same Go type. Tags are lookup keys only; they
// are never serialized.
type TypeTag struct {
	t reflect.Type
}

// TagOf returns the tag for the type M.
func TagOf[M any]() TypeTag {
	return TypeTag{t: reflect.TypeOf((*M)(nil)).Elem()}
}

// tagOfValue returns the tag for a value's dynamic type.
func tagOfValue(v any) TypeTag {
	return TypeTag{t: reflect.TypeOf(v)}
}

// String returns the Go name of the tagged type.
func (tag TypeTag) String() string {
	if tag.t == nil {
		return "<none>"
	}
	return tag.t.String()
}

// IsZero reports whether the tag denotes no type at all.
func (tag TypeTag) IsZero() bool {
	return tag.t == nil
}

// topicKind separates payload message topics from the builtin lifecycle
// topics that carry no payload.
type topicKind uint8

const (
	topicMessage topicKind = iota
	topicEnter
	topicLeave
)

// topic is the subscription registry key: either a message topic keyed by
// the payload's TypeTag, or one of the builtin lifecycle topics.
type topic struct {
	kind topicKind
	tag  TypeTag
}

func messageTopic(tag TypeTag) topic {
	return topic{kind: topicMessage, tag: tag}
}

var (
	enterTopic = topic{kind: topicEnter}
	leaveTopic = topic{kind: topicLeave}
)

// String names the topic for logs and incident records.
func (tp topic) String() string {
	switch tp.kind {
	case topicEnter:
		return "enter"
	case topicLeave:
		return "leave"
	default:
		return tp.tag.String()
	}
}
