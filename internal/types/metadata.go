package types

import (
  "encoding/json"
  "fmt"
  "time"

  "gorm.io/datatypes"
)

// Feedback values a user can attach to a bot message. Distinct from the
// end-of-chat ChatRating.
const (
  FeedbackPositive = "positive"
  FeedbackNegative = "negative"
)

// MetadataVersion is stamped into every blob written by this code so a later
// schema change can tell old rows apart.
const MetadataVersion = 1

// MessageMetadata is the typed form of the chat_message.message_metadata
// column. The original stored an open JSON bag; the fields below are the
// complete set of annotations the portal actually writes.
type MessageMetadata struct {
  Version           int           `json:"version,omitempty"`
  Feedback          *string       `json:"feedback,omitempty"`
  Source            string        `json:"source,omitempty"`
  OperatorRequest   bool          `json:"operator_request,omitempty"`
  RequestTime       *time.Time    `json:"request_time,omitempty"`
}

func (m MessageMetadata) IsZero() bool {
  return m.Feedback == nil && m.Source == "" && !m.OperatorRequest && m.RequestTime == nil
}

// Encode marshals the metadata for storage. Zero metadata encodes to nil so
// untouched messages keep a NULL column.
func (m MessageMetadata) Encode() (datatypes.JSON, error) {
  if m.IsZero() {
    return nil, nil
  }
  m.Version = MetadataVersion
  raw, err := json.Marshal(m)
  if err != nil {
    return nil, fmt.Errorf("failed to encode message metadata: %w", err)
  }
  return datatypes.JSON(raw), nil
}

// DecodeMessageMetadata parses a stored blob. Empty input yields the zero
// value; malformed input is reported but callers are free to fall back to
// the zero value for display purposes.
func DecodeMessageMetadata(raw datatypes.JSON) (MessageMetadata, error) {
  var m MessageMetadata
  if len(raw) == 0 {
    return m, nil
  }
  if err := json.Unmarshal(raw, &m); err != nil {
    return MessageMetadata{}, fmt.Errorf("failed to decode message metadata: %w", err)
  }
  if m.Feedback != nil && *m.Feedback != FeedbackPositive && *m.Feedback != FeedbackNegative {
    return MessageMetadata{}, fmt.Errorf("unknown feedback value: %q", *m.Feedback)
  }
  return m, nil
}

// MergeMetadata applies patch onto existing, last writer wins per field.
// A field absent from the patch keeps its existing value; an explicit JSON
// null clears it. Unknown patch keys are dropped. This is the reducer the
// PATCH endpoint runs inside its transaction.
func MergeMetadata(existing datatypes.JSON, patch []byte) (datatypes.JSON, error) {
  current, err := DecodeMessageMetadata(existing)
  if err != nil {
    // Old rows may carry blobs written by earlier clients; start clean
    // rather than refuse the patch.
    current = MessageMetadata{}
  }
  var fields map[string]json.RawMessage
  if err := json.Unmarshal(patch, &fields); err != nil {
    return nil, fmt.Errorf("metadata patch is not a JSON object: %w", err)
  }
  if raw, ok := fields["feedback"]; ok {
    var fb *string
    if err := json.Unmarshal(raw, &fb); err != nil {
      return nil, fmt.Errorf("invalid feedback in metadata patch: %w", err)
    }
    if fb != nil && *fb != FeedbackPositive && *fb != FeedbackNegative {
      return nil, fmt.Errorf("unknown feedback value: %q", *fb)
    }
    current.Feedback = fb
  }
  if raw, ok := fields["source"]; ok {
    var src string
    if err := json.Unmarshal(raw, &src); err != nil {
      return nil, fmt.Errorf("invalid source in metadata patch: %w", err)
    }
    current.Source = src
  }
  if raw, ok := fields["operator_request"]; ok {
    var op bool
    if err := json.Unmarshal(raw, &op); err != nil {
      return nil, fmt.Errorf("invalid operator_request in metadata patch: %w", err)
    }
    current.OperatorRequest = op
  }
  if raw, ok := fields["request_time"]; ok {
    var ts *time.Time
    if err := json.Unmarshal(raw, &ts); err != nil {
      return nil, fmt.Errorf("invalid request_time in metadata patch: %w", err)
    }
    current.RequestTime = ts
  }
  return current.Encode()
}
