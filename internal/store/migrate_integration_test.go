// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

//go:build integration

package store_test

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stkaddons/stkaddons/internal/store"
)

var _ = Describe("Migrator against PostgreSQL", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("stkaddons"),
			postgres.WithUsername("stkaddons"),
			postgres.WithPassword("stkaddons"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("applies, rolls back and re-applies the schema", func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer migrator.Close()

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Version).To(BeZero())
		Expect(status.Pending).NotTo(BeEmpty())

		Expect(migrator.Up()).To(Succeed())
		status, err = migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Dirty).To(BeFalse())
		Expect(status.Pending).To(BeEmpty())
		latest := status.Version

		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(latest - 1))

		Expect(migrator.Down()).To(Succeed())
		Expect(migrator.Up()).To(Succeed())
	})

	It("connects with retries and seeds the default roles", func() {
		pool, err := store.Connect(ctx, store.ConnectConfig{URL: connStr, Retries: 3}, slog.Default())
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		Expect(countRoles(ctx, pool)).To(BeNumerically(">=", 1))
	})
})

func countRoles(ctx context.Context, pool *pgxpool.Pool) int {
	var n int
	Expect(pool.QueryRow(ctx, `SELECT count(*) FROM roles WHERE name = 'user'`).Scan(&n)).To(Succeed())
	return n
}
