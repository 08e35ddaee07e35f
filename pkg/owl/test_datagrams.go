package owl

import (
	"context"
	"net"
	"time"
)

// Sample datagrams as broadcast by an OWL Intuition gateway.
const (
	TestElectricityV2 = `<electricity id='443719005443' ver='2.0'><timestamp>1505547173</timestamp>` +
		`<signal rssi='-68' lqi='48'/><battery level='100%'/>` +
		`<channels><chan id='0'><curr units='w'>305.00</curr><day units='wh'>5555.79</day></chan>` +
		`<chan id='1'><curr units='w'>120.50</curr><day units='wh'>1234.56</day></chan>` +
		`<chan id='2'><curr units='w'>80.90</curr><day units='wh'>987.65</day></chan></channels>` +
		`<property><current><watts>506.40</watts><cost>12.66</cost></current>` +
		`<day><wh>12345.60</wh><cost>67.85</cost></day></property></electricity>`

	TestElectricityLegacy = `<electricity id='443719005443'><signal rssi='-72' lqi='21'/><battery level='25%'/>` +
		`<chan id='0'><curr units='w'>567.80</curr><day units='wh'>2344.30</day></chan>` +
		`<chan id='1'><curr units='w'>0.00</curr><day units='wh'>0.00</day></chan>` +
		`<chan id='2'><curr units='w'>0.00</curr><day units='wh'>0.00</day></chan></electricity>`

	TestSolarV2 = `<solar id='443719005443' ver='2.0'><timestamp>1505547173</timestamp>` +
		`<current><generating units='w'>1520.75</generating><exporting units='w'>730.20</exporting></current>` +
		`<day><generated units='wh'>8712.00</generated><exported units='wh'>3105.49</exported></day></solar>`

	TestHeatingV2 = `<heating id='443719005443' ver='2'><timestamp>1505547173</timestamp><zones>` +
		`<zone id='20013D4' last='1'><signal rssi='-56' lqi='30'/><battery level='2980'/>` +
		`<temperature state='4' flags='4100' until='1505552400' zone='0'><current>21.37</current>` +
		`<required>21.00</required></temperature></zone></zones></heating>`

	TestHeatingLegacy = `<heating id='443719005443'><signal rssi='-56' lqi='30'/><battery level='2980'/>` +
		`<temperature until='1505552400' zone='0'><current>19.64</current><required>20.50</required>` +
		`</temperature></heating>`

	TestHotWaterV2 = `<hot_water id='443719005443' ver='2'><timestamp>1505547173</timestamp><zones>` +
		`<zone id='20013D5' last='1'><battery level='2980'/>` +
		`<temperature state='1' flags='0' until='1505552400' zone='0'><current>48.26</current>` +
		`<required>55.00</required><ambient>22.75</ambient></temperature></zone></zones></hot_water>`

	TestWeather = `<weather id='443719005443' code='116'><temperature>14.25</temperature>` +
		`<text>Partly Cloudy</text></weather>`

	TestRelays = `<relays id='443719005443' ver='2'><relay id='0' state='0'/></relays>`
)

// SendTestDatagrams sends payloads to addr every interval until ctx is done.
func SendTestDatagrams(ctx context.Context, addr string, interval time.Duration, payloads ...string) error {
	conn, err := net.Dial("udp4", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for _, p := range payloads {
			// nobody may be listening yet
			_, _ = conn.Write([]byte(p))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
