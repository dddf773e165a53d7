package migration

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

// usersFS はユーザーテーブルとメールアドレスの一意インデックスを作る2段階のマイグレーション。
var usersFS = fstest.MapFS{
	"migrations/000002_users_email_unique.up.sql": {Data: []byte("CREATE UNIQUE INDEX idx_users_email ON users(email);")},
	"migrations/000001_create_users.up.sql":       {Data: []byte("CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT NOT NULL);")},
	"migrations/000001_create_users.down.sql":     {Data: []byte("DROP TABLE users;")},
	"migrations/README.md":                        {Data: []byte("読み飛ばされるファイル")},
	"migrations/draft_users.up.sql":               {Data: []byte("THIS IS NOT SQL")},
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("up.sqlのみをバージョン順に読み込むこと", func(t *testing.T) {
		t.Parallel()

		steps, err := Load(usersFS, "migrations")
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if len(steps) != 2 {
			t.Fatalf("len(steps) = %d, want 2", len(steps))
		}
		if steps[0].Version != 1 || steps[0].Name != "create_users" {
			t.Errorf("steps[0] = %d_%s", steps[0].Version, steps[0].Name)
		}
		if steps[1].Version != 2 || steps[1].Name != "users_email_unique" {
			t.Errorf("steps[1] = %d_%s", steps[1].Version, steps[1].Name)
		}
	})

	t.Run("同じバージョンが重複する場合はエラー", func(t *testing.T) {
		t.Parallel()

		dup := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte("SELECT 1;")},
			"m/1_b.up.sql":      {Data: []byte("SELECT 1;")},
		}
		if _, err := Load(dup, "m"); err == nil {
			t.Fatal("Load()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("ディレクトリが存在しない場合はエラー", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(usersFS, "missing"); err == nil {
			t.Fatal("Load()がエラーを返すべきだが、nilが返った")
		}
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	steps, err := Load(usersFS, "migrations")
	if err != nil {
		t.Fatalf("Load()でエラーが発生: %v", err)
	}

	t.Run("未適用のみを適用し2回目は何もしないこと", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		sqlDB := openTestDB(t)

		applied, err := Apply(ctx, sqlDB, steps)
		if err != nil {
			t.Fatalf("1回目のApply()でエラーが発生: %v", err)
		}
		if !slices.Equal(applied, []int{1, 2}) {
			t.Errorf("applied = %v, want [1 2]", applied)
		}

		applied, err = Apply(ctx, sqlDB, steps)
		if err != nil {
			t.Fatalf("2回目のApply()でエラーが発生: %v", err)
		}
		if len(applied) != 0 {
			t.Errorf("2回目にapplied = %v が返された", applied)
		}

		if _, err := sqlDB.ExecContext(ctx, "INSERT INTO users (id, email) VALUES ('1', 'a@example.com')"); err != nil {
			t.Fatalf("usersへの挿入に失敗: %v", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "INSERT INTO users (id, email) VALUES ('2', 'a@example.com')"); err == nil {
			t.Error("メールアドレスの一意インデックスが作成されていない")
		}
	})

	t.Run("後から追加されたStepだけが適用されること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		sqlDB := openTestDB(t)

		if _, err := Apply(ctx, sqlDB, steps[:1]); err != nil {
			t.Fatalf("Apply()でエラーが発生: %v", err)
		}
		applied, err := Apply(ctx, sqlDB, steps)
		if err != nil {
			t.Fatalf("Apply()でエラーが発生: %v", err)
		}
		if !slices.Equal(applied, []int{2}) {
			t.Errorf("applied = %v, want [2]", applied)
		}

		versions, err := AppliedVersions(ctx, sqlDB)
		if err != nil {
			t.Fatalf("AppliedVersions()でエラーが発生: %v", err)
		}
		if !slices.Equal(versions, []int{1, 2}) {
			t.Errorf("versions = %v, want [1 2]", versions)
		}
	})

	t.Run("失敗したStepは記録されず後続も実行されないこと", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		sqlDB := openTestDB(t)
		broken := []Step{
			{Version: 1, Name: "create_users", SQL: "CREATE TABLE users (id TEXT PRIMARY KEY);"},
			{Version: 2, Name: "broken", SQL: "CREATE TABLE ("},
			{Version: 3, Name: "never", SQL: "CREATE TABLE never (id INTEGER);"},
		}

		applied, err := Apply(ctx, sqlDB, broken)
		if err == nil {
			t.Fatal("Apply()がエラーを返すべきだが、nilが返った")
		}
		if !slices.Equal(applied, []int{1}) {
			t.Errorf("applied = %v, want [1]", applied)
		}

		versions, err := AppliedVersions(ctx, sqlDB)
		if err != nil {
			t.Fatalf("AppliedVersions()でエラーが発生: %v", err)
		}
		if !slices.Equal(versions, []int{1}) {
			t.Errorf("versions = %v, want [1]", versions)
		}
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqlDB := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := Run(ctx, sqlDB, usersFS, "migrations"); err != nil {
			t.Fatalf("%d回目のRun()でエラーが発生: %v", i+1, err)
		}
	}
	if err := Run(ctx, sqlDB, usersFS, "missing"); err == nil {
		t.Error("存在しないディレクトリでRun()がエラーを返さない")
	}
}
