package services

import (
  "context"
  "strings"

  "github.com/supplier-portal/assistant-backend/internal/errordata"
  "github.com/supplier-portal/assistant-backend/internal/logger"
)

// AssistantAnswer is one resolved assistant turn: the reply text, the
// knowledge-base source it was drawn from, and whether the question fell
// outside the knowledge base and should be offered operator help.
type AssistantAnswer struct {
  Answer        string
  Source        string
  NeedsOperator bool
}

type AssistantService interface {
  Answer(ctx context.Context, query string) AssistantAnswer
}

// topic is one knowledge-base rule: the first rule whose keyword matches a
// substring of the lowercased query wins, so order matters.
type topic struct {
  keywords []string
  answer   string
  source   string
}

var knowledgeBase = []topic{
  {
    keywords: []string{"тендер", "закупк"},
    answer:   "Для участия в тендерах на Портале поставщиков вам необходимо зарегистрироваться и получить электронную подпись. После регистрации вы сможете просматривать доступные закупки и подавать заявки.",
    source:   "Федеральный закон №44-ФЗ от 05.04.2013, статья 24",
  },
  {
    keywords: []string{"регистрац"},
    answer:   "Для регистрации на Портале поставщиков вам необходимо: 1) подготовить электронную подпись, 2) заполнить форму регистрации на сайте, 3) подтвердить данные компании. Подробную инструкцию вы можете найти в разделе \"Помощь\".",
    source:   "Инструкция по регистрации на Портале поставщиков, раздел 2.1",
  },
  {
    keywords: []string{"оплат", "цен"},
    answer:   "Порядок оплаты по контракту устанавливается заказчиком в соответствии с 44-ФЗ. Обычно оплата производится в течение 15 рабочих дней с момента подписания акта выполненных работ.",
    source:   "Федеральный закон №44-ФЗ от 05.04.2013, статья 34, часть 13.1",
  },
  {
    keywords: []string{"подпись", "эцп"},
    answer:   "Для работы на Портале поставщиков вам потребуется усиленная квалифицированная электронная подпись (УКЭП). Вы можете получить её в одном из аккредитованных удостоверяющих центров.",
    source:   "Федеральный закон №63-ФЗ от 06.04.2011 \"Об электронной подписи\"",
  },
  {
    keywords: []string{"документ", "файл"},
    answer:   "К заявке на участие в закупке необходимо приложить сканы всех требуемых документов в формате PDF. Размер каждого файла не должен превышать 20 МБ.",
    source:   "Постановление Правительства РФ №1414 от 23.12.2015",
  },
}

const (
  fallbackAnswer = "Спасибо за ваш вопрос. Для получения более подробной информации рекомендую обратиться к разделу FAQ на нашем портале или связаться со службой поддержки."
  fallbackSource = "База знаний Портала поставщиков"
)

type assistantService struct {
  log   *logger.Logger
  model ModelService
}

// NewAssistantService builds the answering pipeline. The model client is
// optional: when it is nil or its call fails, the keyword knowledge base
// answers instead.
func NewAssistantService(log *logger.Logger, model ModelService) AssistantService {
  serviceLog := log.With("service", "AssistantService")
  return &assistantService{log: serviceLog, model: model}
}

func (s *assistantService) Answer(ctx context.Context, query string) AssistantAnswer {
  if s.model != nil {
    resp, err := s.model.Query(ctx, query)
    if err == nil {
      return AssistantAnswer{
        Answer:        resp.Answer,
        Source:        fallbackSource,
        NeedsOperator: resp.NeedsOperator,
      }
    }
    s.log.Warn("Model query failed, falling back to keyword knowledge base", "error", err)
    if ed := errordata.GetErrorData(ctx); ed != nil {
      ed.SetMessage("Ассистент временно отвечает по базе знаний без ИИ-модели.")
    }
  }
  return KeywordAnswer(query)
}

// KeywordAnswer resolves a query against the built-in knowledge base.
// Matching is case-insensitive substring search, so Russian word stems like
// "закупк" catch every inflected form. A query that hits no rule gets the
// generic fallback and is flagged for operator help.
func KeywordAnswer(query string) AssistantAnswer {
  input := strings.ToLower(query)
  for _, t := range knowledgeBase {
    for _, kw := range t.keywords {
      if strings.Contains(input, kw) {
        return AssistantAnswer{Answer: t.answer, Source: t.source}
      }
    }
  }
  return AssistantAnswer{
    Answer:        fallbackAnswer,
    Source:        fallbackSource,
    NeedsOperator: true,
  }
}
