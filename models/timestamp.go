package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ISOLayout is the wire format for instants: YYYY-MM-DDTHH:mm:ss.SSSZ.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is an instant exchanged with the stores in ISOLayout.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// TimestampPtr is a convenience for optional end dates.
func TimestampPtr(t time.Time) *Timestamp {
	ts := NewTimestamp(t)
	return &ts
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(ISOLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range []string{ISOLayout, time.RFC3339Nano, "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalBSONValue stores the instant as its ISOLayout string. A BSON
// datetime has no offset, so storing one would move wall-clock dates with a
// positive offset onto the previous calendar day.
func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Format(ISOLayout))
}

// UnmarshalBSONValue reads ISOLayout strings and, for documents written
// before dates were stored as strings, BSON datetimes.
func (t *Timestamp) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: bt, Value: data}
	switch bt {
	case bson.TypeString:
		s := raw.StringValue()
		for _, layout := range []string{ISOLayout, time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return fmt.Errorf("invalid stored timestamp %q", s)
	case bson.TypeDateTime:
		t.Time = raw.Time().UTC()
		return nil
	case bson.TypeNull:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot decode %s into timestamp", bt)
	}
}
