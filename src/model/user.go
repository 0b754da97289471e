package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// CheckPassword compares a given password with the user's hashed password.
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// CreateUser inserts a new user. The Password field must already be hashed.
func (u *User) CreateUser(db *sql.DB) error {
	stmt, err := db.Prepare(`INSERT INTO users (username, password, email) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(u.Username, u.Password, u.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetUserByUsername retrieves a user from the database by their username.
func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(`SELECT id, username, password, email FROM users WHERE username = ?`, username)
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user from the database by their primary key.
func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(`SELECT id, username, password, email FROM users WHERE id = ?`, id)
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// CreateSession inserts a new session into the database.
func CreateSession(db *sql.DB, session *Session) error {
	stmt, err := db.Prepare(`INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	session.CreatedAt = time.Now()
	res, err := stmt.Exec(session.UserID, session.Token, session.RefreshToken,
		session.UserAgent, session.ClientIP, session.IsBlocked, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

// GetSessionByToken retrieves a non-blocked, unexpired session by its access token.
func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
		FROM sessions WHERE token = ? AND is_blocked = FALSE`, token)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.UserAgent, &s.ClientIP, &s.IsBlocked, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("session not found")
		}
		return nil, err
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, errors.New("session expired")
	}
	return &s, nil
}

// GetSessionByRefreshToken retrieves a non-blocked, unexpired session by its refresh token.
func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(`SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
		FROM sessions WHERE refresh_token = ? AND is_blocked = FALSE`, refreshToken)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.UserAgent, &s.ClientIP, &s.IsBlocked, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("session not found")
		}
		return nil, err
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, errors.New("session expired")
	}
	return &s, nil
}

// DeleteSessionByToken removes the session for the given access token (logout).
func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
