package channel_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pirplot/internal/channel"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given channel ids", t, func() {
		logN, n, rec, err := channel.Parse("13_64_128")
		So(err, ShouldBeNil)
		So(logN, ShouldEqual, 13)
		So(n, ShouldEqual, 64)
		So(rec, ShouldEqual, 128)

		for _, bad := range []string{"13_64", "a_b_c", "13_64_128_9", "pirQuery"} {
			_, _, _, err := channel.Parse(bad)
			So(errors.Is(err, channel.ErrBadID), ShouldBeTrue)
		}

		So(channel.RecordCount("14_73_224"), ShouldEqual, 73)
		So(channel.RecordCount("nope"), ShouldEqual, 0)
	})
}

func TestFriendly(t *testing.T) {
	Convey("Given the default label table", t, func() {
		So(channel.Friendly("13_64_128", nil), ShouldEqual, "mini")
		So(channel.Friendly("14_73_224", nil), ShouldEqual, "mid")
		So(channel.Friendly("15_128_256", nil), ShouldEqual, "rich")
		So(channel.Friendly("16_1_1", nil), ShouldEqual, "16_1_1")
	})

	Convey("Given a custom label table", t, func() {
		labels := map[string]string{"16_1_1": "huge"}
		So(channel.Friendly("16_1_1", labels), ShouldEqual, "huge")
		So(channel.Friendly("13_64_128", labels), ShouldEqual, "13_64_128")
	})
}

func TestDiscover(t *testing.T) {
	Convey("Given a root with channel and non-channel entries", t, func() {
		root := t.TempDir()
		for _, d := range []string{"15_128_256", "13_64_128", "14_73_224", "figures", "bad_one_x"} {
			So(os.Mkdir(filepath.Join(root, d), 0o755), ShouldBeNil)
		}
		So(os.WriteFile(filepath.Join(root, "12_1_1"), []byte("file, not dir"), 0o600), ShouldBeNil)

		Convey("When discovering", func() {
			chans, err := channel.Discover(root)
			So(err, ShouldBeNil)

			Convey("Then only matching directories appear, sorted by ring exponent", func() {
				So(len(chans), ShouldEqual, 3)
				So(chans[0].ID, ShouldEqual, "13_64_128")
				So(chans[1].ID, ShouldEqual, "14_73_224")
				So(chans[2].ID, ShouldEqual, "15_128_256")
				So(chans[2].LogN, ShouldEqual, 15)
				So(chans[2].N, ShouldEqual, 128)
				So(chans[2].Records, ShouldEqual, 256)
				So(chans[0].Path, ShouldEqual, filepath.Join(root, "13_64_128"))
			})
		})
	})

	Convey("Given a missing root", t, func() {
		_, err := channel.Discover(filepath.Join(t.TempDir(), "absent"))
		So(errors.Is(err, channel.ErrScanRoot), ShouldBeTrue)
	})
}

func TestFindSubdir(t *testing.T) {
	Convey("Given a channel directory with mixed-case function dirs", t, func() {
		dir := t.TempDir()
		So(os.Mkdir(filepath.Join(dir, "PirQuery"), 0o755), ShouldBeNil)

		So(channel.FindSubdir(dir, "pirQuery"), ShouldEqual, filepath.Join(dir, "PirQuery"))
		So(channel.FindSubdir(dir, "initLedger"), ShouldEqual, "")
	})
}
