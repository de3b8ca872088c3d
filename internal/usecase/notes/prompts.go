package notes

const generatePrompt = `You are a study notes generator. Read the provided study material and
produce structured notes as a single JSON object with exactly these keys:

{
  "title": string,
  "tl_dr": string,
  "summary": string,
  "sections": [{"heading": string, "summary": string, "bullets": [string], "important_quotes": [string]}],
  "action_items": [string],
  "questions": [string],
  "flashcards": [{"question": string, "answer": string}]
}

Respond with the JSON object only. No markdown, no code fences, no prose
before or after the JSON.`

// strictPrefix hardens the retry after a parse failure.
const strictPrefix = `Your previous response was not valid JSON. Respond with ONLY a raw JSON
object, nothing else.

`
