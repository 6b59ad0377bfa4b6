package gateway_test

import (
	"reflect"
	"testing"

	"github.com/natadecua/SNOOP/internal/gateway"
)

const ipLinkShow = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN mode DEFAULT group default qlen 1000
    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00
2: enp3s0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc fq_codel state UP mode DEFAULT group default qlen 1000
    link/ether 3c:7c:3f:1d:aa:01 brd ff:ff:ff:ff:ff:ff
3: wlp2s0: <BROADCAST,MULTICAST> mtu 1500 qdisc noop state DOWN mode DORMANT group default qlen 1000
    link/ether 9c:b6:d0:11:22:33 brd ff:ff:ff:ff:ff:ff
4: docker0: <NO-CARRIER,BROADCAST,MULTICAST,UP> mtu 1500 qdisc noqueue state DOWN mode DEFAULT group default
    link/ether 02:42:8c:44:55:66 brd ff:ff:ff:ff:ff:ff
5: br-1f2e3d4c5b6a: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue state UP mode DEFAULT group default
    link/ether 02:42:aa:bb:cc:dd brd ff:ff:ff:ff:ff:ff
7: veth9a8b7c6@if6: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue master br-1f2e3d4c5b6a state UP mode DEFAULT group default
    link/ether 8e:11:22:33:44:55 brd ff:ff:ff:ff:ff:ff link-netnsid 0
8: eth0.100@enp3s0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc noqueue state UP mode DEFAULT group default qlen 1000
    link/ether 3c:7c:3f:1d:aa:01 brd ff:ff:ff:ff:ff:ff
`

func TestParseLinkList(t *testing.T) {
	defaults := gateway.DefaultConfig().ExcludedPrefixes
	cases := []struct {
		name     string
		output   string
		excluded []string
		want     []string
	}{
		{
			name:     "synthetic",
			output:   "1: lo: <LOOPBACK...>\n2: eth0@NONE: ...\n3: docker0: ...",
			excluded: defaults,
			want:     []string{"eth0"},
		},
		{
			name:     "real ip link show",
			output:   ipLinkShow,
			excluded: defaults,
			want:     []string{"enp3s0", "wlp2s0", "eth0.100"},
		},
		{
			name:     "no exclusions keeps container links",
			output:   ipLinkShow,
			excluded: nil,
			want:     []string{"enp3s0", "wlp2s0", "docker0", "br-1f2e3d4c5b6a", "veth9a8b7c6", "eth0.100"},
		},
		{
			name:     "loopback flag on a renamed link",
			output:   "1: lo0: <LOOPBACK,UP> mtu 16384\n2: en0: <UP,BROADCAST> mtu 1500",
			excluded: defaults,
			want:     []string{"en0"},
		},
		{
			name:     "duplicates collapse",
			output:   "2: eth0: <UP>\n2: eth0: <UP>\n",
			excluded: defaults,
			want:     []string{"eth0"},
		},
		{
			name:     "empty output",
			output:   "",
			excluded: defaults,
			want:     []string{},
		},
		{
			name:     "garbage lines ignored",
			output:   "Device \"x\" does not exist.\nfoo: bar\n3: eth1: <UP>\r\n",
			excluded: defaults,
			want:     []string{"eth1"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := gateway.ParseLinkList(tc.output, tc.excluded)
			if got == nil {
				t.Fatal("ParseLinkList returned nil")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
