// Package migration はSQLiteのスキーマをup.sqlファイルから順に構築する。
// 適用済みのバージョンはschema_migrationsテーブルに記録する。
package migration

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"path"
	"slices"
	"strconv"
	"strings"
)

// upSuffix はマイグレーションとして読み込むファイルの拡張子。
const upSuffix = ".up.sql"

// Step は1つのマイグレーション。
type Step struct {
	// Version はファイル名先頭の番号。適用順を決める。
	Version int
	// Name はファイル名のバージョン以降の部分。
	Name string
	// SQL は実行する文。
	SQL string
}

// Load はdir直下の"000001_name.up.sql"形式のファイルを読み込み、バージョン順に返す。
// 番号として解釈できないファイルは読み飛ばす。同じ番号のファイルが複数ある場合はエラー。
func Load(fsys fs.FS, dir string) ([]Step, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(entries))
	for _, entry := range entries {
		base, ok := strings.CutSuffix(entry.Name(), upSuffix)
		if entry.IsDir() || !ok {
			continue
		}
		num, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(num)
		if err != nil {
			continue
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%sの読み込みに失敗: %w", entry.Name(), err)
		}
		steps = append(steps, Step{Version: version, Name: name, SQL: string(body)})
	}

	slices.SortFunc(steps, func(a, b Step) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(steps); i++ {
		if steps[i].Version == steps[i-1].Version {
			return nil, fmt.Errorf("バージョン %06d が重複しています: %s, %s", steps[i].Version, steps[i-1].Name, steps[i].Name)
		}
	}
	return steps, nil
}

// Apply は未適用のStepを順に実行し、今回適用したバージョンを返す。
// 各Stepは記録と同じトランザクションで実行するため、失敗したStepは記録されない。
func Apply(ctx context.Context, db *sql.DB, steps []Step) ([]int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return nil, fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	done, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}

	var applied []int
	for _, step := range steps {
		if _, found := slices.BinarySearch(done, step.Version); found {
			continue
		}
		if err := applyStep(ctx, db, step); err != nil {
			return applied, fmt.Errorf("マイグレーション %06d_%s の適用に失敗: %w", step.Version, step.Name, err)
		}
		applied = append(applied, step.Version)
	}
	return applied, nil
}

// Run はdirのマイグレーションを読み込み、未適用のものを適用する。
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	steps, err := Load(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションファイルの収集に失敗: %w", err)
	}
	applied, err := Apply(ctx, db, steps)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		log.Printf("[Migration] %d件のマイグレーションを適用しました: versions=%v", len(applied), applied)
	}
	return nil
}

// AppliedVersions は記録済みのバージョンを昇順で返す。
func AppliedVersions(ctx context.Context, db *sql.DB) ([]int, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func applyStep(ctx context.Context, db *sql.DB, step Step) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", step.Version, step.Name); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
