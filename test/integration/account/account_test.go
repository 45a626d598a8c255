// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

//go:build integration

package account_test

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/pbkdf2"

	"github.com/stkaddons/stkaddons/internal/account"
)

const agent = "SuperTuxKart/1.4 (Linux)"

func registration(username, email string) account.RegisterRequest {
	return account.RegisterRequest{
		Username:        username,
		Password:        "hunter2hunter2",
		PasswordConfirm: "hunter2hunter2",
		Email:           email,
		AcceptedTerms:   true,
	}
}

var _ = Describe("Account lifecycle", func() {
	BeforeEach(func() {
		env.reset()
	})

	Describe("Register", func() {
		It("creates an inactive user with the default role and mails a code", func() {
			user, err := env.service.Register(env.ctx, registration("racer", "racer@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(BeNumerically(">", 0))
			Expect(user.Activated).To(BeFalse())
			Expect(user.RealName).To(Equal("racer"))

			code := env.verificationCode(user.ID)
			Expect(code).To(HaveLen(account.DefaultCodeLength))

			sent := env.mailbox.sent()
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].To).To(ConsistOf("racer@example.com"))
			Expect(sent[0].TextBody).To(ContainSubstring("activate?code=" + code))

			profile, err := env.service.Profile(env.ctx, account.ByID(user.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Role.Name).To(Equal("user"))
		})

		It("rejects a duplicate username and email", func() {
			_, err := env.service.Register(env.ctx, registration("racer", "racer@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = env.service.Register(env.ctx, registration("racer", "other@example.com"))
			Expect(err).To(MatchError(account.ErrUsernameTaken))

			_, err = env.service.Register(env.ctx, registration("other", "racer@example.com"))
			Expect(err).To(MatchError(account.ErrEmailTaken))
		})

		It("lets exactly one of several concurrent registrations win", func() {
			const n = 8
			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := range n {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, errs[i] = env.service.Register(env.ctx, registration("racer", strings.Repeat("x", i+1)+"@example.com"))
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(err).To(MatchError(account.ErrUsernameTaken))
			}
			Expect(succeeded).To(Equal(1))
		})

		It("writes nothing when validation fails", func() {
			req := registration("admin_tux", "tux@example.com")
			_, err := env.service.Register(env.ctx, req)
			Expect(err).To(MatchError(account.ErrBadUsername))

			var count int
			Expect(env.pool.QueryRow(env.ctx, `SELECT count(*) FROM users`).Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("Sessions", func() {
		var user *account.User

		BeforeEach(func() {
			var err error
			user, err = env.service.Register(env.ctx, registration("racer", "racer@example.com"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("signs in, validates, resolves and polls", func() {
			session, err := env.service.Login(env.ctx, "racer", "hunter2hunter2", agent)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.UserID).To(Equal(user.ID))
			Expect(session.Token).To(HaveLen(account.DefaultTokenLength))
			Expect(session.Token).To(MatchRegexp(`^[A-Za-z]+$`))

			var stored string
			Expect(env.pool.QueryRow(env.ctx, `SELECT token_hash FROM sessions WHERE user_id = $1`, user.ID).
				Scan(&stored)).To(Succeed())
			Expect(stored).To(Equal(account.HashSessionToken(session.Token)))
			Expect(stored).NotTo(Equal(session.Token))

			validated, err := env.service.ValidateSession(env.ctx, user.ID, session.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(validated.ID).To(Equal(session.ID))

			resolved, err := env.service.ResolveSession(env.ctx, session.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.UserID).To(Equal(user.ID))

			polled, err := env.service.Poll(env.ctx, user.ID, session.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(polled.LastActivity).NotTo(BeTemporally("<", session.LastActivity))

			loaded, err := env.service.GetUser(env.ctx, account.ByID(user.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.DateLogin).NotTo(BeNil())
		})

		It("keeps earlier sessions valid after a new login", func() {
			first, err := env.service.Login(env.ctx, "racer", "hunter2hunter2", agent)
			Expect(err).NotTo(HaveOccurred())
			second, err := env.service.Login(env.ctx, "racer", "hunter2hunter2", agent)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Token).NotTo(Equal(first.Token))

			_, err = env.service.ValidateSession(env.ctx, user.ID, first.Token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects wrong credentials and mismatched sessions", func() {
			_, err := env.service.Login(env.ctx, "racer", "wrong-password", agent)
			Expect(err).To(MatchError(account.ErrInvalidCredentials))
			_, err = env.service.Login(env.ctx, "nobody", "hunter2hunter2", agent)
			Expect(err).To(MatchError(account.ErrInvalidCredentials))
			_, err = env.service.Login(env.ctx, "RACER", "hunter2hunter2", agent)
			Expect(err).To(MatchError(account.ErrInvalidCredentials))

			session, err := env.service.Login(env.ctx, "racer", "hunter2hunter2", agent)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.service.ValidateSession(env.ctx, user.ID+1, session.Token)
			Expect(err).To(MatchError(account.ErrInvalidSession))
			_, err = env.service.ResolveSession(env.ctx, "not-a-token")
			Expect(err).To(MatchError(account.ErrInvalidSession))
		})

		It("upgrades a legacy werkzeug hash on login", func() {
			salt := "legacysalt"
			digest := pbkdf2.Key([]byte("oldpassword1"), []byte(salt), 1000, 32, sha256.New)
			legacy := "pbkdf2:sha256:1000$" + salt + "$" + hex.EncodeToString(digest)
			_, err := env.pool.Exec(env.ctx, `UPDATE users SET password = $1 WHERE id = $2`, legacy, user.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.service.Login(env.ctx, "racer", "oldpassword1", agent)
			Expect(err).NotTo(HaveOccurred())

			var stored string
			Expect(env.pool.QueryRow(env.ctx, `SELECT password FROM users WHERE id = $1`, user.ID).
				Scan(&stored)).To(Succeed())
			Expect(stored).To(HavePrefix("$argon2id$"))

			_, err = env.service.Login(env.ctx, "racer", "oldpassword1", agent)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Verification", func() {
		It("activates once and refuses reuse", func() {
			user, err := env.service.Register(env.ctx, registration("racer", "racer@example.com"))
			Expect(err).NotTo(HaveOccurred())
			code := env.verificationCode(user.ID)

			activated, err := env.service.Activate(env.ctx, code)
			Expect(err).NotTo(HaveOccurred())
			Expect(activated.Activated).To(BeTrue())

			_, err = env.service.Activate(env.ctx, code)
			Expect(err).To(MatchError(account.ErrInvalidCode))

			err = env.service.ResendVerification(env.ctx, account.ByUsername("racer"))
			Expect(err).To(MatchError(account.ErrAlreadyActivated))
		})

		It("replaces the code on resend", func() {
			user, err := env.service.Register(env.ctx, registration("racer", "racer@example.com"))
			Expect(err).NotTo(HaveOccurred())
			first := env.verificationCode(user.ID)

			Expect(env.service.ResendVerification(env.ctx, account.ByID(user.ID))).To(Succeed())
			second := env.verificationCode(user.ID)
			Expect(second).NotTo(Equal(first))
			Expect(env.mailbox.sent()).To(HaveLen(2))

			_, err = env.service.Activate(env.ctx, first)
			Expect(err).To(MatchError(account.ErrInvalidCode))
			_, err = env.service.Activate(env.ctx, second)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Profile", func() {
		It("lists achievements and sessions", func() {
			user, err := env.service.Register(env.ctx, registration("racer", "racer@example.com"))
			Expect(err).NotTo(HaveOccurred())
			_, err = env.pool.Exec(env.ctx,
				`INSERT INTO achieved (user_id, achievement_id) VALUES ($1, 3), ($1, 1)`, user.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.service.Login(env.ctx, "racer", "hunter2hunter2", agent)
			Expect(err).NotTo(HaveOccurred())

			profile, err := env.service.Profile(env.ctx, account.ByUsername("racer"))
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Achievements).To(ConsistOf(account.AchievementID(1), account.AchievementID(3)))
			Expect(profile.Sessions).To(HaveLen(1))
			Expect(profile.Sessions[0].Token).To(BeEmpty())
		})

		It("reports unknown users", func() {
			_, err := env.service.Profile(env.ctx, account.ByID(999))
			Expect(err).To(MatchError(account.ErrNoSuchUser))
			Expect(account.Message(err)).To(Equal("No account matches that username or ID."))
		})
	})
})
