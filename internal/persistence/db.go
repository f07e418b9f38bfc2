// Package persistence provides SQLite-based game state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/buildings"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/engine"
)

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		quantity REAL NOT NULL,
		cap_bonus REAL NOT NULL,
		lifetime REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		xp REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS upgrades (
		id TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS assignments (
		activity TEXT NOT NULL,
		worker_type TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (activity, worker_type)
	);

	CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		level INTEGER NOT NULL,
		elapsed_ms REAL NOT NULL,
		duration_ms REAL NOT NULL,
		complete INTEGER NOT NULL,
		upgrades_json TEXT NOT NULL,
		rooms_json TEXT NOT NULL,
		queue_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveState writes the full save document in one transaction (full
// replace).
func (db *DB) SaveState(st *engine.SaveState) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"resources", "skills", "upgrades", "assignments", "buildings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	// Resource rows union stocks, cap bonuses, and lifetime counters.
	resourceIDs := make(map[content.ResourceID]bool)
	for id := range st.Resources {
		resourceIDs[id] = true
	}
	for id := range st.CapBonuses {
		resourceIDs[id] = true
	}
	for id := range st.Lifetime {
		resourceIDs[id] = true
	}
	for id := range resourceIDs {
		_, err := tx.Exec(
			"INSERT INTO resources (id, quantity, cap_bonus, lifetime) VALUES (?, ?, ?, ?)",
			string(id), st.Resources[id], st.CapBonuses[id], st.Lifetime[id],
		)
		if err != nil {
			return fmt.Errorf("insert resource %s: %w", id, err)
		}
	}

	for id, xp := range st.Skills {
		if _, err := tx.Exec("INSERT INTO skills (id, xp) VALUES (?, ?)", string(id), xp); err != nil {
			return fmt.Errorf("insert skill %s: %w", id, err)
		}
	}

	for _, id := range st.Upgrades {
		if _, err := tx.Exec("INSERT INTO upgrades (id) VALUES (?)", string(id)); err != nil {
			return fmt.Errorf("insert upgrade %s: %w", id, err)
		}
	}

	for activity, byType := range st.Assignments {
		for workerType, count := range byType {
			_, err := tx.Exec(
				"INSERT INTO assignments (activity, worker_type, count) VALUES (?, ?, ?)",
				string(activity), string(workerType), count,
			)
			if err != nil {
				return fmt.Errorf("insert assignment %s/%s: %w", activity, workerType, err)
			}
		}
	}

	for i, inst := range st.Buildings {
		upgradesJSON, _ := json.Marshal(inst.UpgradeLevels)
		roomsJSON, _ := json.Marshal(inst.Rooms)
		queueJSON, _ := json.Marshal(inst.Queue)

		complete := 0
		if inst.Complete {
			complete = 1
		}

		_, err := tx.Exec(`INSERT INTO buildings
			(id, position, type, level, elapsed_ms, duration_ms, complete,
			 upgrades_json, rooms_json, queue_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ID, i, string(inst.Type), inst.Level, inst.ElapsedMs,
			inst.DurationMs, complete,
			string(upgradesJSON), string(roomsJSON), string(queueJSON),
		)
		if err != nil {
			return fmt.Errorf("insert building %s: %w", inst.ID, err)
		}
	}

	meta := map[string]string{
		"save_version":     strconv.Itoa(st.Version),
		"last_save_time":   strconv.FormatInt(st.LastSaveTime, 10),
		"total_built":      strconv.Itoa(st.TotalBuilt),
		"global_cap_bonus": strconv.FormatFloat(st.GlobalCapBonus, 'g', -1, 64),
		"sim_time_ms":      strconv.FormatFloat(st.SimTimeMs, 'g', -1, 64),
	}
	for key, value := range meta {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)",
			key, value,
		)
		if err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// LoadState reads a save document. Returns (nil, nil) when no save exists,
// the save's version is unrecognized, or a stored column fails to decode —
// the caller starts fresh; no partial application of a malformed save is
// permitted.
func (db *DB) LoadState() (*engine.SaveState, error) {
	var versionStr string
	err := db.conn.Get(&versionStr, "SELECT value FROM game_meta WHERE key = 'save_version'")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save version: %w", err)
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil || version != engine.SaveVersion {
		slog.Warn("unrecognized save version, starting fresh", "found", versionStr)
		return nil, nil
	}

	st := &engine.SaveState{
		Version:     version,
		Resources:   make(map[content.ResourceID]float64),
		Lifetime:    make(map[content.ResourceID]float64),
		CapBonuses:  make(map[content.ResourceID]float64),
		Skills:      make(map[content.SkillID]float64),
		Assignments: make(map[content.ActivityID]map[content.WorkerTypeID]int),
	}

	type resourceRow struct {
		ID       string  `db:"id"`
		Quantity float64 `db:"quantity"`
		CapBonus float64 `db:"cap_bonus"`
		Lifetime float64 `db:"lifetime"`
	}
	var resources []resourceRow
	if err := db.conn.Select(&resources, "SELECT id, quantity, cap_bonus, lifetime FROM resources"); err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	for _, r := range resources {
		id := content.ResourceID(r.ID)
		st.Resources[id] = r.Quantity
		if r.CapBonus != 0 {
			st.CapBonuses[id] = r.CapBonus
		}
		st.Lifetime[id] = r.Lifetime
	}

	type skillRow struct {
		ID string  `db:"id"`
		XP float64 `db:"xp"`
	}
	var skillRows []skillRow
	if err := db.conn.Select(&skillRows, "SELECT id, xp FROM skills"); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	for _, r := range skillRows {
		st.Skills[content.SkillID(r.ID)] = r.XP
	}

	var upgradeIDs []string
	if err := db.conn.Select(&upgradeIDs, "SELECT id FROM upgrades ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load upgrades: %w", err)
	}
	for _, id := range upgradeIDs {
		st.Upgrades = append(st.Upgrades, content.UpgradeID(id))
	}

	type assignmentRow struct {
		Activity   string `db:"activity"`
		WorkerType string `db:"worker_type"`
		Count      int    `db:"count"`
	}
	var assignmentRows []assignmentRow
	if err := db.conn.Select(&assignmentRows, "SELECT activity, worker_type, count FROM assignments"); err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	for _, r := range assignmentRows {
		actID := content.ActivityID(r.Activity)
		if st.Assignments[actID] == nil {
			st.Assignments[actID] = make(map[content.WorkerTypeID]int)
		}
		st.Assignments[actID][content.WorkerTypeID(r.WorkerType)] = r.Count
	}

	type buildingRow struct {
		ID           string  `db:"id"`
		Position     int     `db:"position"`
		Type         string  `db:"type"`
		Level        int     `db:"level"`
		ElapsedMs    float64 `db:"elapsed_ms"`
		DurationMs   float64 `db:"duration_ms"`
		Complete     int     `db:"complete"`
		UpgradesJSON string  `db:"upgrades_json"`
		RoomsJSON    string  `db:"rooms_json"`
		QueueJSON    string  `db:"queue_json"`
	}
	var buildingRows []buildingRow
	if err := db.conn.Select(&buildingRows, "SELECT * FROM buildings ORDER BY position"); err != nil {
		return nil, fmt.Errorf("load buildings: %w", err)
	}
	for _, r := range buildingRows {
		inst := &buildings.Instance{
			ID:         r.ID,
			Type:       content.BuildingTypeID(r.Type),
			Level:      r.Level,
			ElapsedMs:  r.ElapsedMs,
			DurationMs: r.DurationMs,
			Complete:   r.Complete != 0,
		}
		if err := json.Unmarshal([]byte(r.UpgradesJSON), &inst.UpgradeLevels); err != nil {
			slog.Warn("malformed save, starting fresh", "building", r.ID, "column", "upgrades_json", "error", err)
			return nil, nil
		}
		if err := json.Unmarshal([]byte(r.RoomsJSON), &inst.Rooms); err != nil {
			slog.Warn("malformed save, starting fresh", "building", r.ID, "column", "rooms_json", "error", err)
			return nil, nil
		}
		if err := json.Unmarshal([]byte(r.QueueJSON), &inst.Queue); err != nil {
			slog.Warn("malformed save, starting fresh", "building", r.ID, "column", "queue_json", "error", err)
			return nil, nil
		}
		st.Buildings = append(st.Buildings, inst)
	}

	readMeta := func(key string) (string, bool) {
		var value string
		err := db.conn.Get(&value, "SELECT value FROM game_meta WHERE key = ?", key)
		if err != nil {
			return "", false
		}
		return value, true
	}
	if v, ok := readMeta("last_save_time"); ok {
		st.LastSaveTime, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := readMeta("total_built"); ok {
		st.TotalBuilt, _ = strconv.Atoi(v)
	}
	if v, ok := readMeta("global_cap_bonus"); ok {
		st.GlobalCapBonus, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := readMeta("sim_time_ms"); ok {
		st.SimTimeMs, _ = strconv.ParseFloat(v, 64)
	}

	return st, nil
}
