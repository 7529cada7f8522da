package types

import (
  "strings"
  "testing"
  "time"

  "github.com/stretchr/testify/require"
  "gorm.io/datatypes"
)

func TestEncode_ZeroMetadataStaysNull(t *testing.T) {
  raw, err := MessageMetadata{}.Encode()
  require.NoError(t, err)
  require.Nil(t, raw)
}

func TestEncode_StampsVersion(t *testing.T) {
  raw, err := MessageMetadata{Source: "FAQ"}.Encode()
  require.NoError(t, err)
  md, err := DecodeMessageMetadata(raw)
  require.NoError(t, err)
  require.Equal(t, MetadataVersion, md.Version)
  require.Equal(t, "FAQ", md.Source)
}

func TestDecode_RejectsUnknownFeedback(t *testing.T) {
  _, err := DecodeMessageMetadata(datatypes.JSON(`{"feedback":"meh"}`))
  require.Error(t, err)
}

func TestMergeMetadata_SetsFeedback(t *testing.T) {
  merged, err := MergeMetadata(nil, []byte(`{"feedback":"positive"}`))
  require.NoError(t, err)
  md, err := DecodeMessageMetadata(merged)
  require.NoError(t, err)
  require.NotNil(t, md.Feedback)
  require.Equal(t, FeedbackPositive, *md.Feedback)
}

func TestMergeMetadata_AbsentFieldKeepsExisting(t *testing.T) {
  fb := FeedbackNegative
  existing, err := MessageMetadata{Feedback: &fb, Source: "44-ФЗ"}.Encode()
  require.NoError(t, err)

  merged, err := MergeMetadata(existing, []byte(`{"operator_request":true}`))
  require.NoError(t, err)
  md, err := DecodeMessageMetadata(merged)
  require.NoError(t, err)
  require.NotNil(t, md.Feedback)
  require.Equal(t, FeedbackNegative, *md.Feedback)
  require.Equal(t, "44-ФЗ", md.Source)
  require.True(t, md.OperatorRequest)
}

func TestMergeMetadata_ExplicitNullClears(t *testing.T) {
  fb := FeedbackPositive
  existing, err := MessageMetadata{Feedback: &fb, Source: "FAQ"}.Encode()
  require.NoError(t, err)

  merged, err := MergeMetadata(existing, []byte(`{"feedback":null}`))
  require.NoError(t, err)
  md, err := DecodeMessageMetadata(merged)
  require.NoError(t, err)
  require.Nil(t, md.Feedback)
  require.Equal(t, "FAQ", md.Source)
}

func TestMergeMetadata_DropsUnknownKeys(t *testing.T) {
  merged, err := MergeMetadata(nil, []byte(`{"feedback":"negative","bogus":123}`))
  require.NoError(t, err)
  require.False(t, strings.Contains(string(merged), "bogus"))
}

func TestMergeMetadata_RejectsBadPatch(t *testing.T) {
  _, err := MergeMetadata(nil, []byte(`[1,2,3]`))
  require.Error(t, err)

  _, err = MergeMetadata(nil, []byte(`{"feedback":"great"}`))
  require.Error(t, err)

  _, err = MergeMetadata(nil, []byte(`{"operator_request":"yes"}`))
  require.Error(t, err)
}

func TestMergeMetadata_RequestTimeRoundTrip(t *testing.T) {
  ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
  existing, err := MessageMetadata{OperatorRequest: true, RequestTime: &ts}.Encode()
  require.NoError(t, err)

  merged, err := MergeMetadata(existing, []byte(`{"feedback":"positive"}`))
  require.NoError(t, err)
  md, err := DecodeMessageMetadata(merged)
  require.NoError(t, err)
  require.True(t, md.OperatorRequest)
  require.NotNil(t, md.RequestTime)
  require.True(t, md.RequestTime.Equal(ts))
}
