package mcpserver

// PlanFormatContract describes the proposed-session record format that
// agent clients must follow when importing a schedule via import_plan.
const PlanFormatContract = `# StudyFlow Plan Format Contract

A plan is a JSON array of proposed-session records. Each record becomes
one study session anchored at the import's start date.

## Record shape

` + "```" + `json
[
  {
    "dayOffset": 0,
    "startTime": "09:00",
    "endTime": "10:30",
    "subjectId": "sub_1",
    "topicIds": ["t1", "t2"],
    "type": "New",
    "reasoning": "Fresh start on Data Structures before the midterm"
  }
]
` + "```" + `

## Rules

1. **dayOffset** is a non-negative integer: 0 is the start date, 1 the
   next day, and so on. Required.
2. **startTime / endTime** are zero-padded 24-hour "HH:mm" strings.
   Required.
3. **subjectId** references a subject from list_subjects. Required. The
   reference is not verified; unknown ids render as "Unknown Subject".
4. **topicIds** is an array of topic ids covered by the session (may be
   empty, must be present). Required.
5. **type** is one of "New", "Revision", "Practice". Required.
6. **reasoning** is optional free text; it is stored as the session's
   notes.
7. A record missing any required field fails the ENTIRE import. Nothing
   is imported partially.
8. Keep individual sessions at 90 minutes or less and avoid the user's
   busy blocks (list them via list_busy_blocks before planning).
`
