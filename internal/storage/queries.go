package storage

const (
	selectTransactionColumns = `SELECT id, user_id, type, amount_cents, category_id, description, date, created_at FROM transactions`

	listTransactionsSQL = selectTransactionColumns + ` WHERE user_id = ? ORDER BY date, created_at, id`
	getTransactionSQL   = selectTransactionColumns + ` WHERE user_id = ? AND id = ?`

	insertTransactionSQL = `INSERT INTO transactions (id, user_id, type, amount_cents, category_id, description, date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	updateTransactionSQL = `UPDATE transactions
SET type = ?, amount_cents = ?, category_id = ?, description = ?, date = ?
WHERE user_id = ? AND id = ?`

	deleteTransactionSQL = `DELETE FROM transactions WHERE user_id = ? AND id = ?`

	listCategoriesSQL = `SELECT id, name, type, color, icon FROM categories ORDER BY position, rowid`

	insertCategorySQL = `INSERT INTO categories (id, name, type, color, icon, position)
VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM categories))`

	listBudgetsSQL = `SELECT id, user_id, category_id, limit_cents, year, month FROM budgets
WHERE user_id = ? AND year = ? AND month = ? ORDER BY rowid`

	upsertBudgetSQL = `INSERT INTO budgets (id, user_id, category_id, limit_cents, year, month)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, category_id, year, month)
DO UPDATE SET id = excluded.id, limit_cents = excluded.limit_cents`

	budgetUsersSQL = `SELECT DISTINCT user_id FROM budgets WHERE year = ? AND month = ? ORDER BY user_id`
)
