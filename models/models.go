package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// Database schema overview:
// 1. agencies - Tenant organizations; every other table is scoped by agency_id
// 2. admin_users / refresh_tokens - Console logins with cookie-based authentication
// 3. team_members / staff_users - Staff profiles and their staff-portal credentials
// 4. training_categories -> training_modules -> training_lessons - The content tree
// 5. quizzes / quiz_questions - Per-lesson quizzes
// 6. training_assignments / lesson_completions - Who was assigned what, and progress
// 7. challenge_purchases / challenge_assignments - Seat bundles and seat consumption
// 8. challenge_lessons / core4_logs / challenge_reflections - The 6-week Challenge program
// 9. agency_calls / call_analyses - Uploaded transcripts and their AI scoring results
// 10. call_rubrics - Per-agency overrides of the built-in scoring rubrics
