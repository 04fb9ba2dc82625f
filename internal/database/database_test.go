package database

import (
	"context"
	"errors"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:", 1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn", 0); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("err = %v, want ErrUnknownDriver", err)
	}
}

func TestOpenSqlite(t *testing.T) {
	db := openTestDB(t)
	if db.Driver() != "sqlite" {
		t.Fatalf("driver = %q", db.Driver())
	}
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: "sqlite"}
	if got := sqlite.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = ? AND b = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}

	pg := &DB{driver: "postgres"}
	if got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
}

func usersDAO(t *testing.T) *DAO {
	t.Helper()
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL
)`)
	if err != nil {
		t.Fatal(err)
	}
	return NewDAO(db, Table{Name: "users", Key: "id", Columns: []string{"name", "email"}})
}

func TestDAOInsertLoad(t *testing.T) {
	dao := usersDAO(t)
	ctx := context.Background()

	row := Row{"name": "ada", "email": "ada@example.com"}
	if err := dao.Insert(ctx, row); err != nil {
		t.Fatal(err)
	}
	id, ok := row["id"].(int64)
	if !ok || id == 0 {
		t.Fatalf("generated key = %v", row["id"])
	}

	loaded, err := dao.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded["name"] != "ada" || loaded["email"] != "ada@example.com" {
		t.Fatalf("loaded = %v", loaded)
	}
}

func TestDAOLoadMissing(t *testing.T) {
	dao := usersDAO(t)
	row, err := dao.Load(context.Background(), 404)
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Fatalf("row = %v, want nil", row)
	}
}

func TestDAOSave(t *testing.T) {
	dao := usersDAO(t)
	ctx := context.Background()

	row := Row{"name": "ada", "email": "ada@example.com"}
	if err := dao.Save(ctx, row); err != nil {
		t.Fatal(err)
	}
	id := row["id"].(int64)

	row["email"] = "countess@example.com"
	if err := dao.Save(ctx, row); err != nil {
		t.Fatal(err)
	}

	loaded, err := dao.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded["email"] != "countess@example.com" {
		t.Fatalf("email = %v", loaded["email"])
	}
}

func TestDAOUpdateRequiresKey(t *testing.T) {
	dao := usersDAO(t)
	if err := dao.Update(context.Background(), Row{"name": "x", "email": "y"}); err == nil {
		t.Fatal("expected update without key to fail")
	}
}

func TestDAODelete(t *testing.T) {
	dao := usersDAO(t)
	ctx := context.Background()

	row := Row{"name": "ada", "email": "ada@example.com"}
	if err := dao.Insert(ctx, row); err != nil {
		t.Fatal(err)
	}
	if err := dao.Delete(ctx, row["id"].(int64)); err != nil {
		t.Fatal(err)
	}
	loaded, err := dao.Load(ctx, row["id"].(int64))
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Fatal("row should be gone")
	}
}

func TestDAOList(t *testing.T) {
	dao := usersDAO(t)
	ctx := context.Background()

	for _, name := range []string{"ada", "grace", "alan"} {
		if err := dao.Insert(ctx, Row{"name": name, "email": name + "@example.com"}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := dao.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0]["name"] != "ada" || all[2]["name"] != "alan" {
		t.Fatalf("key order not honored: %v", all)
	}

	some, err := dao.List(ctx, "name = ?", "grace")
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 1 || some[0]["name"] != "grace" {
		t.Fatalf("filtered = %v", some)
	}
}
