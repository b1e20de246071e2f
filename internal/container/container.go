package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourplaces/api/config"
	"github.com/yourplaces/api/pkg/geocode"
	"github.com/yourplaces/api/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Router modules auto-wire themselves from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client
	geocoder    *geocode.Client

	jwtManager *helpers.JWTManager

	emailPub   *helpers.RabbitPublisher
	cleanupPub *helpers.RabbitPublisher
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetES(c *elasticsearch.Client)            { esClient = c }
func GetES() *elasticsearch.Client             { return esClient }
func SetGeocoder(g *geocode.Client)            { geocoder = g }
func GetGeocoder() *geocode.Client             { return geocoder }
func SetEmailPub(p *helpers.RabbitPublisher)   { emailPub = p }
func GetEmailPub() *helpers.RabbitPublisher    { return emailPub }
func SetCleanupPub(p *helpers.RabbitPublisher) { cleanupPub = p }
func GetCleanupPub() *helpers.RabbitPublisher  { return cleanupPub }
