package normalizer

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed data/region_aliases.yaml
var regionAliasesYAML []byte

// RulesConfig chứa các bảng tra cứu được nhúng sẵn
type RulesConfig struct {
	RegionAliases map[string][]string `yaml:"region_aliases"`
}

// LoadRulesConfig load cấu hình rules từ YAML nhúng
func LoadRulesConfig() (*RulesConfig, error) {
	config := &RulesConfig{}
	if err := yaml.Unmarshal(regionAliasesYAML, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Synonyms trả về bảng đồng nghĩa hai chiều (tên chuẩn <-> tên rút gọn)
func (rc *RulesConfig) Synonyms() map[string][]string {
	out := make(map[string][]string)
	for canonical, aliases := range rc.RegionAliases {
		out[canonical] = append(out[canonical], aliases...)
		for _, alias := range aliases {
			out[alias] = append(out[alias], canonical)
		}
	}
	return out
}
