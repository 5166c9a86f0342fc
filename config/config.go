package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigName 配置文件名（不含扩展名），在当前目录或 --config 指定路径查找
const ConfigName = "herosync"

// Config 进程级配置
type Config struct {
	Host      string // 非空即客户端角色
	HostPort  int
	Client    int
	TickRate  int
	Heartbeat int
	Probe     int
	Handshake time.Duration
	AdminAddr string
	Spectate  int
	LogFile   string
	LogLevel  string
}

// IsClient 是否以客户端身份连接主机
func (c Config) IsClient() bool { return c.Host != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("host.port", 4114)
	v.SetDefault("client.port", 4004)
	v.SetDefault("tick.rate", 120)
	v.SetDefault("heartbeat.ticks", 120)
	v.SetDefault("ping.probeEvery", 0)
	v.SetDefault("handshake.timeout", "0s")
	v.SetDefault("admin.addr", ":8080")
	v.SetDefault("spectator.every", 4)
	v.SetDefault("log.file", "herosync.log")
	v.SetDefault("log.level", "info")
}

// RegisterFlags 声明命令行参数；键名与配置文件一致
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file (json/yaml/toml)")
	fs.Int("host.port", 4114, "UDP port the host listens on")
	fs.Int("client.port", 4004, "local UDP port bound by the client")
	fs.Int("tick.rate", 120, "simulation updates per second")
	fs.Int("heartbeat.ticks", 120, "ticks between full-state heartbeats")
	fs.Int("ping.probeEvery", 0, "ticks between self-initiated latency probes (0 disables)")
	fs.Duration("handshake.timeout", 0, "give up the handshake after this long (0 waits forever)")
	fs.String("admin.addr", ":8080", "admin/spectator HTTP address (empty disables)")
	fs.Int("spectator.every", 4, "ticks between spectator state frames")
	fs.String("log.file", "herosync.log", "rotating log file")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
}

// Load 解析参数，合并默认值、配置文件、环境变量（HEROSYNC_ 前缀）与命令行
// 第一个位置参数为主机名：存在则为客户端，否则为主机
func Load(fs *pflag.FlagSet, args []string) (Config, error) {
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HEROSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %v", err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	cfg := Config{
		Host:      fs.Arg(0),
		HostPort:  v.GetInt("host.port"),
		Client:    v.GetInt("client.port"),
		TickRate:  v.GetInt("tick.rate"),
		Heartbeat: v.GetInt("heartbeat.ticks"),
		Probe:     v.GetInt("ping.probeEvery"),
		Handshake: v.GetDuration("handshake.timeout"),
		AdminAddr: v.GetString("admin.addr"),
		Spectate:  v.GetInt("spectator.every"),
		LogFile:   v.GetString("log.file"),
		LogLevel:  v.GetString("log.level"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick.rate must be > 0, got %d", c.TickRate)
	}
	if c.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat.ticks must be > 0, got %d", c.Heartbeat)
	}
	if c.Spectate <= 0 {
		return fmt.Errorf("spectator.every must be > 0, got %d", c.Spectate)
	}
	if c.HostPort <= 0 || c.HostPort > 65535 || c.Client < 0 || c.Client > 65535 {
		return fmt.Errorf("invalid ports: host=%d client=%d", c.HostPort, c.Client)
	}
	return nil
}

// ListenAddr 本机 UDP 绑定地址
func (c Config) ListenAddr() string {
	if c.IsClient() {
		return fmt.Sprintf("0.0.0.0:%d", c.Client)
	}
	return fmt.Sprintf("0.0.0.0:%d", c.HostPort)
}

// HostAddr 客户端连接的主机地址
func (c Config) HostAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HostPort))
}

// TickInterval 固定步长
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
