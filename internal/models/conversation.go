package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Conversation is an ordered list of messages keyed by client key.
//
// On the wire it is either a JSON object ({"message1": {...}, ...}) whose
// member order is the conversation order, or a plain JSON array.
type Conversation struct {
	messages []Message
	keys     []string
	index    map[string]int
}

// NewConversation builds a conversation keyed by position ("0", "1", ...).
func NewConversation(msgs ...Message) Conversation {
	var c Conversation
	for i, m := range msgs {
		c.Set(strconv.Itoa(i), m)
	}
	return c
}

// Set appends msg under key. A repeated key replaces the earlier value in
// place, matching how a JSON object with duplicate members is read.
func (c *Conversation) Set(key string, msg Message) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[key]; ok {
		c.messages[i] = msg
		return
	}
	c.index[key] = len(c.messages)
	c.messages = append(c.messages, msg)
	c.keys = append(c.keys, key)
}

func (c Conversation) Len() int { return len(c.messages) }

// Messages returns a copy of the messages in conversation order.
func (c Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c Conversation) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// MarshalJSON writes the keyed object form, in conversation order.
func (c Conversation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.messages[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("messages is not valid JSON")
	}

	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		return nil
	}

	*c = Conversation{}
	switch {
	case res.IsObject():
		var decodeErr error
		res.ForEach(func(key, value gjson.Result) bool {
			msg, err := decodeMessage(value)
			if err != nil {
				decodeErr = fmt.Errorf("messages.%s: %w", key.String(), err)
				return false
			}
			c.Set(key.String(), msg)
			return true
		})
		return decodeErr
	case res.IsArray():
		for i, value := range res.Array() {
			msg, err := decodeMessage(value)
			if err != nil {
				return fmt.Errorf("messages.%d: %w", i, err)
			}
			c.Set(strconv.Itoa(i), msg)
		}
		return nil
	default:
		return errors.New("messages must be an object or an array")
	}
}

func decodeMessage(value gjson.Result) (Message, error) {
	if !value.IsObject() {
		return Message{}, errors.New("message must be an object")
	}
	role := value.Get("role")
	if role.Type != gjson.String {
		return Message{}, errors.New("role is required and must be a string")
	}
	content := value.Get("content")
	if content.Type != gjson.String {
		return Message{}, errors.New("content is required and must be a string")
	}
	return Message{Role: role.String(), Content: content.String()}, nil
}
