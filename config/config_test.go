package config

import (
	"testing"

	"github.com/dvrdeck-cli/dvrdeck/filesystem"
	"github.com/dvrdeck-cli/dvrdeck/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Server URL defaults to empty until setup runs", func() {
			_ = Setup()
			So(viper.GetString(key.ServerURL), ShouldBeEmpty)
			So(viper.GetBool(key.ServerSetupDone), ShouldBeFalse)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("server.guide_cache_minutes")
			So(result, ShouldEqual, "server_guide_cache_minutes")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Field", t, func() {
		field := Default[key.ServerURL]

		Convey("Env() carries the application prefix", func() {
			So(field.Env(), ShouldEqual, "DVRDECK_SERVER_URL")
		})

		Convey("Pretty() renders without panicking", func() {
			So(field.Pretty(), ShouldContainSubstring, field.Key)
		})
	})
}
