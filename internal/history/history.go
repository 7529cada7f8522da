// Package history shapes raw chat messages into the summary rows the
// history panel and admin tables render. Everything here is a pure
// projection over already-loaded slices.
package history

import (
  "sort"
  "strings"
  "time"

  "github.com/supplier-portal/assistant-backend/internal/types"
)

type Filter string

const (
  FilterAll      Filter = "all"
  FilterPositive Filter = "positive"
  FilterNegative Filter = "negative"
  FilterNoRating Filter = "no-rating"
)

type SortOrder string

const (
  SortNewest SortOrder = "newest"
  SortOldest SortOrder = "oldest"
)

// Item is one display row per chat: the opening user question, the first
// assistant answer, and the feedback left on that answer. It approximates a
// multi-turn conversation by its first exchange.
type Item struct {
  ID       string    `json:"id"`
  Question string    `json:"question"`
  Answer   string    `json:"answer"`
  Date     time.Time `json:"date"`
  Rating   *string   `json:"rating"`
}

// Group is a date bucket of items for display, labelled "Сегодня",
// "Вчера" or the day in DD.MM.YYYY form.
type Group struct {
  Label string `json:"label"`
  Items []Item `json:"items"`
}

// FormatChatHistory folds raw messages into one Item per distinct chat id.
// Question is the earliest non-bot message, answer the earliest bot message,
// rating the feedback stored on that bot message (nil when absent). The
// item's date is the chat's first message timestamp. Chats missing either
// side of the exchange still produce a row with the missing part empty.
func FormatChatHistory(messages []*types.ChatMessage) []Item {
  byChat := make(map[string][]*types.ChatMessage)
  var order []string
  for _, m := range messages {
    if _, ok := byChat[m.ChatID]; !ok {
      order = append(order, m.ChatID)
    }
    byChat[m.ChatID] = append(byChat[m.ChatID], m)
  }

  items := make([]Item, 0, len(order))
  for _, chatID := range order {
    msgs := byChat[chatID]
    sort.SliceStable(msgs, func(i, j int) bool {
      return msgs[i].Timestamp.Before(msgs[j].Timestamp)
    })
    item := Item{ID: chatID, Date: msgs[0].Timestamp}
    for _, m := range msgs {
      if !m.IsBot && item.Question == "" {
        item.Question = m.Message
      }
      if m.IsBot && item.Answer == "" {
        item.Answer = m.Message
        md := m.Metadata()
        item.Rating = md.Feedback
      }
      if item.Question != "" && item.Answer != "" {
        break
      }
    }
    items = append(items, item)
  }
  return items
}

// Search keeps items whose question or answer contains the query,
// case-insensitively. An empty query keeps everything.
func Search(items []Item, query string) []Item {
  q := strings.ToLower(strings.TrimSpace(query))
  if q == "" {
    return items
  }
  out := make([]Item, 0, len(items))
  for _, it := range items {
    if strings.Contains(strings.ToLower(it.Question), q) || strings.Contains(strings.ToLower(it.Answer), q) {
      out = append(out, it)
    }
  }
  return out
}

func ApplyFilter(items []Item, filter Filter) []Item {
  if filter == FilterAll || filter == "" {
    return items
  }
  out := make([]Item, 0, len(items))
  for _, it := range items {
    switch filter {
    case FilterPositive:
      if it.Rating != nil && *it.Rating == types.FeedbackPositive {
        out = append(out, it)
      }
    case FilterNegative:
      if it.Rating != nil && *it.Rating == types.FeedbackNegative {
        out = append(out, it)
      }
    case FilterNoRating:
      if it.Rating == nil {
        out = append(out, it)
      }
    }
  }
  return out
}

func ApplySort(items []Item, order SortOrder) []Item {
  out := make([]Item, len(items))
  copy(out, items)
  sort.SliceStable(out, func(i, j int) bool {
    if order == SortOldest {
      return out[i].Date.Before(out[j].Date)
    }
    return out[i].Date.After(out[j].Date)
  })
  return out
}

// Paginate slices out one page. Pages are 1-based; a page below 1 is
// clamped to the first page and a page past the end is clamped to the last.
func Paginate(items []Item, page, perPage int) []Item {
  if perPage <= 0 {
    return items
  }
  totalPages := (len(items) + perPage - 1) / perPage
  if totalPages == 0 {
    return []Item{}
  }
  if page < 1 {
    page = 1
  }
  if page > totalPages {
    page = totalPages
  }
  start := (page - 1) * perPage
  end := start + perPage
  if end > len(items) {
    end = len(items)
  }
  return items[start:end]
}

// TotalPages reports how many pages a list spans at the given page size.
func TotalPages(total, perPage int) int {
  if perPage <= 0 {
    return 1
  }
  return (total + perPage - 1) / perPage
}

// GroupByDate buckets items into Today / Yesterday / per-day groups,
// preserving the incoming item order inside each bucket. Bucket labels for
// older days use DD.MM.YYYY. now fixes what "today" means so callers and
// tests can pin it.
func GroupByDate(items []Item, now time.Time) []Group {
  today := now.Truncate(24 * time.Hour)
  yesterday := today.AddDate(0, 0, -1)

  var groups []Group
  index := make(map[string]int)
  for _, it := range items {
    day := it.Date.Truncate(24 * time.Hour)
    var label string
    switch {
    case day.Equal(today):
      label = "Сегодня"
    case day.Equal(yesterday):
      label = "Вчера"
    default:
      label = it.Date.Format("02.01.2006")
    }
    i, ok := index[label]
    if !ok {
      groups = append(groups, Group{Label: label})
      i = len(groups) - 1
      index[label] = i
    }
    groups[i].Items = append(groups[i].Items, it)
  }
  return groups
}
